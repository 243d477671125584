package errs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(context.DeadlineExceeded, KindOracleUnavailable, "oracle.classify")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("cause lost")
	}
	if !Is(err, KindOracleUnavailable) {
		t.Errorf("kind = %v", KindOf(err))
	}
	if got := err.Error(); got != "oracle.classify: oracle_unavailable: context deadline exceeded" {
		t.Errorf("Error() = %q", got)
	}
	if Wrap(nil, KindUnknown, "x") != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestKindOfThroughFmtWrap(t *testing.T) {
	base := Errorf(KindStockExceeded, "order.capture", "requested %d, available %d", 15, 10)
	wrapped := fmt.Errorf("turn: %w", base)
	if KindOf(wrapped) != KindStockExceeded {
		t.Errorf("KindOf = %v", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("plain errors are unknown")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := map[Kind]int{
		KindInvalid:            http.StatusBadRequest,
		KindNotFound:           http.StatusNotFound,
		KindCatalogUnavailable: http.StatusServiceUnavailable,
		KindStockExceeded:      http.StatusConflict,
		KindUnknown:            http.StatusInternalServerError,
	}
	for k, want := range tests {
		if got := HTTPStatus(k); got != want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", k, got, want)
		}
	}
}
