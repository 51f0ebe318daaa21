// Package schemas embeds the JSON Schemas of the documents the grading engine produces.
package schemas

import _ "embed"

// SemesterBackup is the schema of the full semester backup document.
//
//go:embed semester_backup.schema.json
var SemesterBackup string
