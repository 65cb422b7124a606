package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorDump is a log-friendly view of an error chain, including driver and
// Google API details buried in it.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`

	APIStatus  int    `json:"api_status,omitempty"`
	APIReason  string `json:"api_reason,omitempty"`
	APIMessage string `json:"api_message,omitempty"`
	GRPCCode   string `json:"grpc_code,omitempty"`
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

	d.dumpPostgres(err)
	d.dumpGoogle(err)
	return d
}

// Fields returns the non-empty dump values keyed for structured logging.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error": d.TopMessage}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	if len(d.Chain) > 0 {
		fields["error_chain"] = d.Chain
	}
	for k, v := range map[string]string{
		"pg_code":       d.PGCode,
		"pg_constraint": d.PGConstraint,
		"pg_table":      d.PGTable,
		"pg_message":    d.PGMessage,
		"api_reason":    d.APIReason,
		"api_message":   d.APIMessage,
		"grpc_code":     d.GRPCCode,
	} {
		if v != "" {
			fields[k] = v
		}
	}
	if d.APIStatus != 0 {
		fields["api_status"] = d.APIStatus
	}
	return fields
}

func (d *ErrorDump) dumpPostgres(err error) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
		return
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
	}
}

// Speech and Vertex surface *googleapi.Error; Pub/Sub and BigQuery surface gRPC status.
func (d *ErrorDump) dumpGoogle(err error) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		d.APIStatus = apiErr.Code
		d.APIMessage = apiErr.Message
		if len(apiErr.Errors) > 0 {
			d.APIReason = apiErr.Errors[0].Reason
		}
		return
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		d.GRPCCode = st.Code().String()
	}
}
