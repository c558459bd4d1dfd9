// Package shared holds helpers used by more than one layer.
//
// The testutil subpackage captures slog output and builds roster workbooks
// so service, transport and CLI tests exercise the same fixtures:
//
//	logger, logs := testutil.NewTestLogger(t)
//	book := testutil.RosterWorkbook(t, testutil.Student{First: "Ada", Last: "Lovelace", Start: "01/15/2024"})
package shared
