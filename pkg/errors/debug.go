package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorDump flattens an error chain for structured logs.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	PG *PGDetails `json:"pg,omitempty"`
}

// PGDetails is set when a postgres error sits somewhere in the chain.
type PGDetails struct {
	Code       string `json:"code"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}
	d := ErrorDump{TopMessage: err.Error(), Code: As(err).codeOr("")}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}
	if pg := pgError(err); pg != nil {
		d.PG = &PGDetails{Code: pg.Code, Constraint: pg.ConstraintName, Table: pg.TableName, Detail: pg.Detail}
	}
	return d
}

func pgError(err error) *pgconn.PgError {
	var pg *pgconn.PgError
	if errors.As(err, &pg) {
		return pg
	}
	return nil
}
