package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/speak2see-backend/pkg/errors"
	"github.com/angelmondragon/speak2see-backend/pkg/logger"
)

func TestWriteSuccessIsNotEnveloped(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"processingStatus": "IN_PROGRESS"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["processingStatus"] != "IN_PROGRESS" {
		t.Fatalf("unexpected payload %v", body)
	}
	if _, wrapped := body["data"]; wrapped {
		t.Fatalf("success payload must not be wrapped: %v", body)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		code    pkgerrors.Code
		message string
	}{
		{pkgerrors.New(pkgerrors.CodeValidation, "no file uploaded"), http.StatusBadRequest, pkgerrors.CodeValidation, "no file uploaded"},
		{pkgerrors.New(pkgerrors.CodeTooLarge, "file too large"), http.StatusRequestEntityTooLarge, pkgerrors.CodeTooLarge, "file too large"},
		{pkgerrors.New(pkgerrors.CodeNotFound, "no upload found"), http.StatusNotFound, pkgerrors.CodeNotFound, "no upload found"},
		{pkgerrors.New(pkgerrors.CodeRateLimit, "slow down"), http.StatusTooManyRequests, pkgerrors.CodeRateLimit, "slow down"},
		{pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("db down"), "secret detail"), http.StatusInternalServerError, pkgerrors.CodeInternal, "internal server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		WriteError(context.Background(), logger.Nop(), w, tc.err)
		if w.Code != tc.status {
			t.Fatalf("%s: expected status %d, got %d", tc.code, tc.status, w.Code)
		}
		var body ErrorEnvelope
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Error.Code != string(tc.code) || body.Error.Message != tc.message {
			t.Fatalf("%s: unexpected body %+v", tc.code, body.Error)
		}
	}
}

func TestWriteErrorDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeTooLarge, "file too large").WithDetails(map[string]any{"maxBytes": 3})
	WriteError(context.Background(), nil, w, err)

	var body ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Details == nil {
		t.Fatal("expected details in public payload")
	}
}

func TestWriteErrorDefaultsToInternalForUntypedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}
	var body ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) || body.Error.Details != nil {
		t.Fatalf("unexpected body %+v", body.Error)
	}
}
