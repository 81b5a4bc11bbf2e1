package utils

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlRowIsReferenced2 = 1217
	mysqlNoReferencedRow  = 1452
)

func mysqlErrorNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func IsDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return mysqlErrorNumber(err) == mysqlDuplicateEntry
}

// IsForeignKeyError reports a restrict violation on delete (the row is still referenced).
func IsForeignKeyError(err error) bool {
	n := mysqlErrorNumber(err)
	return n == mysqlRowIsReferenced || n == mysqlRowIsReferenced2
}

// IsMissingReferenceError reports an insert/update pointing at a row that does not exist.
func IsMissingReferenceError(err error) bool {
	return mysqlErrorNumber(err) == mysqlNoReferencedRow
}
