package version

import (
	"runtime"
	"testing"
)

func TestString(t *testing.T) {
	want := "reqvest dev (unknown) built unknown"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || info.Commit != Commit {
		t.Errorf("Get() = %+v, want version %q commit %q", info, Version, Commit)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", info.GoVersion, runtime.Version())
	}
}
