package db

import (
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// SanitizeTable handles schema-qualified table names like "sdeadm.bld_building_use".
func SanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

// ValidateTable rejects table names that could smuggle SQL into the
// generic fetch queries, which interpolate the table identifier.
func ValidateTable(table string) error {
	if table == "" {
		return eris.New("db: empty table name")
	}
	for _, r := range table {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_' || r == '.':
		default:
			return eris.Errorf("db: invalid table name %q", table)
		}
	}
	if strings.Count(table, ".") > 1 {
		return eris.Errorf("db: invalid table name %q", table)
	}
	return nil
}
