package assignment

import (
	"context"
	"fmt"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/jonathan/recruit-grader/internal/store/memstore"
	"github.com/jonathan/recruit-grader/internal/types"
)

func TestSchedulerBalance(t *testing.T) {
	convey.Convey("Given a cycle whose slot count divides evenly across the pool", t, func() {
		ctx := context.Background()
		cases := []struct{ applicants, graders int }{
			{4, 3}, {8, 6}, {10, 5}, {12, 9}, {20, 4}, {7, 7},
		}

		for _, c := range cases {
			name := fmt.Sprintf("%d applicants and %d graders", c.applicants, c.graders)
			convey.Convey("When assigning written graders to "+name, func() {
				st, apps, _ := seedCycle(t, c.applicants, c.graders)
				s := NewScheduler(st, nil)

				_, err := s.AssignAll(ctx, cycle)
				convey.So(err, convey.ShouldBeNil)

				convey.Convey("Then workload differs by at most one", func() {
					report, err := s.Workload(ctx, cycle)
					convey.So(err, convey.ShouldBeNil)
					convey.So(report.WrittenSpread, convey.ShouldBeLessThanOrEqualTo, 1)

					total := 0
					for _, l := range report.Written {
						total += l.Applicants
					}
					convey.So(total, convey.ShouldEqual, c.applicants*3)
				})

				convey.Convey("And no applicant holds the same grader twice", func() {
					for _, graders := range gradersByApplicant(t, st, apps) {
						convey.So(len(graders), convey.ShouldEqual, 3)
						for _, slots := range graders {
							convey.So(slots, convey.ShouldEqual, 5)
						}
					}
				})

				convey.Convey("And gap-fill afterwards is a no-op", func() {
					result, err := s.FillWrittenGaps(ctx, cycle)
					convey.So(err, convey.ShouldBeNil)
					convey.So(result.Created, convey.ShouldEqual, 0)
				})

				convey.Convey("And a subsequent full assignment is refused", func() {
					_, err := s.AssignAll(ctx, cycle)
					convey.So(types.IsConflict(err), convey.ShouldBeTrue)
				})
			})
		}
	})

	convey.Convey("Given interview gap-fill over an empty cycle", t, func() {
		ctx := context.Background()
		st, apps, _ := seedCycle(t, 6, 4)
		s := NewScheduler(st, nil)

		_, err := s.FillInterviewGaps(ctx, cycle)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then interview load is balanced", func() {
			report, err := s.Workload(ctx, cycle)
			convey.So(err, convey.ShouldBeNil)
			// 6 applicants x 2 rounds x 2 graders over 4 graders
			convey.So(report.InterviewSpread, convey.ShouldBeLessThanOrEqualTo, 1)
		})

		convey.Convey("And every round has two distinct graders", func() {
			assignments, err := st.ListInterviewAssignments(ctx, types.ApplicantIDs(apps))
			convey.So(err, convey.ShouldBeNil)
			seen := make(map[roundKey]types.GraderSet)
			for _, a := range assignments {
				k := roundKey{a.ApplicantID, a.Round}
				if seen[k] == nil {
					seen[k] = make(types.GraderSet)
				}
				convey.So(seen[k].Has(a.GraderID), convey.ShouldBeFalse)
				seen[k].Add(a.GraderID)
			}
			convey.So(len(seen), convey.ShouldEqual, 12)
		})
	})

	convey.Convey("Given a failing store", t, func() {
		st, _, _ := seedCycle(t, 2, 3)
		st.FailOn(memstore.OpListGraderPool, "", fmt.Errorf("timeout"))

		convey.Convey("Then full assignment fails before writing", func() {
			_, err := NewScheduler(st, nil).AssignAll(context.Background(), cycle)
			convey.So(err, convey.ShouldNotBeNil)
			convey.So(st.Calls(memstore.OpInsertWritten), convey.ShouldEqual, 0)
		})
	})
}
