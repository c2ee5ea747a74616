package main

import (
	"os"
	"strings"
	"testing"
)

// The seed statement is written by hand, so its column list can drift
// from the DDL without anything failing until it hits a live database.
func TestInsertStatsColumnsMatchSchema(t *testing.T) {
	schema, err := os.ReadFile("../../game/db/schema.sql")
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	table := tableDefinition(t, string(schema), "user_game_stats")

	for _, column := range insertColumns(t, insertStatsSQL) {
		if !strings.Contains(table, column) {
			t.Errorf("column %q not defined on user_game_stats", column)
		}
	}
}

func tableDefinition(t *testing.T, schema, table string) string {
	t.Helper()
	marker := "CREATE TABLE " + table + " ("
	start := strings.Index(schema, marker)
	if start < 0 {
		t.Fatalf("table %s not found in schema", table)
	}
	rest := schema[start+len(marker):]
	end := strings.Index(rest, ");")
	if end < 0 {
		t.Fatalf("unterminated definition for table %s", table)
	}
	return rest[:end]
}

func insertColumns(t *testing.T, stmt string) []string {
	t.Helper()
	start := strings.Index(stmt, "(")
	end := strings.Index(stmt, ")")
	if start < 0 || end < start {
		t.Fatalf("no column list in statement %q", stmt)
	}
	var columns []string
	for _, c := range strings.Split(stmt[start+1:end], ",") {
		columns = append(columns, strings.TrimSpace(c))
	}
	return columns
}
