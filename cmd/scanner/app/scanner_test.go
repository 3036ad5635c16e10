package app

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewScannerCommand(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScannerFlags(t *testing.T) {
	cmd := NewScannerCommand(context.Background())
	if f := cmd.Flags().Lookup("fail-on-errors"); f == nil || f.DefValue != "false" {
		t.Fatalf("fail-on-errors flag = %+v", f)
	}
	if cmd.PersistentFlags().Lookup("log-level") == nil {
		t.Fatal("log-level flag missing")
	}
}

func TestScanRejectsInvalidConfig(t *testing.T) {
	t.Setenv("CRON_SECRET", "")
	t.Setenv("DATA_STORE", "firestore")

	_, err := execute(t, "--log-level", "error")
	if err == nil || !strings.Contains(err.Error(), "CRON_SECRET") {
		t.Fatalf("err = %v, want a configuration error naming CRON_SECRET", err)
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		t.Error("configuration errors must use the default exit status")
	}
}

func TestMigrateRequiresPostgres(t *testing.T) {
	t.Setenv("CRON_SECRET", "s3cret")
	t.Setenv("DATA_STORE", "firestore")
	t.Setenv("FIREBASE_CREDENTIALS_FILE", "/etc/deadlinemind/firebase.json")

	for _, sub := range []string{"up", "down"} {
		_, err := execute(t, "migrate", sub, "--log-level", "error")
		if err == nil || !strings.Contains(err.Error(), "DATA_STORE is firestore") {
			t.Errorf("migrate %s: err = %v", sub, err)
		}
	}
}

func TestExitErrorUnwraps(t *testing.T) {
	inner := errors.New("scan finished with 3 errors")
	err := error(&ExitError{Code: 2, Err: inner})

	var exit *ExitError
	if !errors.As(err, &exit) || exit.Code != 2 {
		t.Fatalf("errors.As failed for %v", err)
	}
	if !errors.Is(err, inner) || err.Error() != inner.Error() {
		t.Errorf("ExitError does not wrap %v", inner)
	}
}
