package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorDump flattens an error chain for structured logs, surfacing Postgres
// diagnostics from either the pgx or the lib/pq driver.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	d.fillPostgres(err)
	return d
}

func (d *ErrorDump) fillPostgres(err error) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.PGCode, d.PGConstraint, d.PGTable = pgxErr.Code, pgxErr.ConstraintName, pgxErr.TableName
		d.PGColumn, d.PGDetail, d.PGMessage = pgxErr.ColumnName, pgxErr.Detail, pgxErr.Message
		return
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.PGCode, d.PGConstraint, d.PGTable = string(pqErr.Code), pqErr.Constraint, pqErr.Table
		d.PGColumn, d.PGDetail, d.PGMessage = pqErr.Column, pqErr.Detail, pqErr.Message
	}
}

// LogFields returns the dump as log fields, leaving out empty Postgres values.
func (d ErrorDump) LogFields() map[string]any {
	fields := map[string]any{
		"error":       d.TopMessage,
		"error_chain": d.Chain,
	}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	for key, value := range map[string]string{
		"pg_code":       d.PGCode,
		"pg_constraint": d.PGConstraint,
		"pg_table":      d.PGTable,
		"pg_column":     d.PGColumn,
		"pg_detail":     d.PGDetail,
		"pg_message":    d.PGMessage,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
