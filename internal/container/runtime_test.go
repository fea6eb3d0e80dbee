// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package container

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// fakeCommander answers lookPath from onPath and run from results, keyed by
// the full command line. Every run is recorded.
type fakeCommander struct {
	onPath  map[string]bool
	results map[string]error
	stderr  string
	pipe    func(stdin io.Reader, stdout io.Writer) error
	calls   []string
}

func (f *fakeCommander) lookPath(file string) (string, error) {
	if f.onPath[file] {
		return "/usr/bin/" + file, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

func (f *fakeCommander) run(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	line := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, line)
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.stderr != "" {
		io.WriteString(stderr, f.stderr)
	}
	if f.pipe != nil && len(args) > 0 && args[0] == "run" {
		return f.pipe(stdin, stdout)
	}
	if err, ok := f.results[line]; ok {
		return err
	}
	return errors.New("exit status 125")
}

func newTestRuntime(bin string, cmd commander) *cliRuntime {
	for _, e := range engines {
		if e.bin == bin {
			return &cliRuntime{engine: e, cmd: cmd}
		}
	}
	panic("unknown engine " + bin)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		onPath   map[string]bool
		results  map[string]error
		wantName string
	}{
		{
			name:     "docker responds",
			onPath:   map[string]bool{"docker": true},
			results:  map[string]error{"docker info": nil},
			wantName: "docker",
		},
		{
			name:     "podman only",
			onPath:   map[string]bool{"podman": true},
			results:  map[string]error{"podman info": nil},
			wantName: "podman",
		},
		{
			name:     "docker daemon down falls back to podman",
			onPath:   map[string]bool{"docker": true, "podman": true},
			results:  map[string]error{"podman info": nil},
			wantName: "podman",
		},
		{
			name:     "docker preferred when both respond",
			onPath:   map[string]bool{"docker": true, "podman": true},
			results:  map[string]error{"docker info": nil, "podman info": nil},
			wantName: "docker",
		},
		{
			name:   "nothing installed",
			onPath: map[string]bool{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt, err := detect(&fakeCommander{onPath: tt.onPath, results: tt.results})
			if tt.wantName == "" {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), "tried docker, podman") {
					t.Errorf("error should list the engines tried, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rt.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", rt.Name(), tt.wantName)
			}
		})
	}
}

func TestImageExists(t *testing.T) {
	tests := []struct {
		bin     string
		check   string
		found   bool
		wantErr string
	}{
		{"docker", "docker image inspect pdftotext:latest", true, ""},
		{"docker", "docker image inspect pdftotext:latest", false, "image pdftotext:latest not found in docker"},
		{"podman", "podman image exists pdftotext:latest", true, ""},
		{"podman", "podman image exists pdftotext:latest", false, "image pdftotext:latest not found in podman"},
	}
	for _, tt := range tests {
		name := tt.bin + "/missing"
		if tt.found {
			name = tt.bin + "/present"
		}
		t.Run(name, func(t *testing.T) {
			cmd := &fakeCommander{results: map[string]error{}}
			if tt.found {
				cmd.results[tt.check] = nil
			}
			err := newTestRuntime(tt.bin, cmd).ImageExists("pdftotext:latest")
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			} else if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want it to contain %q", err, tt.wantErr)
			}
			if len(cmd.calls) != 1 || cmd.calls[0] != tt.check {
				t.Errorf("calls = %v, want [%s]", cmd.calls, tt.check)
			}
		})
	}
}

func TestRun_SandboxedPipe(t *testing.T) {
	for _, bin := range []string{"docker", "podman"} {
		t.Run(bin, func(t *testing.T) {
			cmd := &fakeCommander{
				pipe: func(stdin io.Reader, stdout io.Writer) error {
					data, _ := io.ReadAll(stdin)
					_, err := io.WriteString(stdout, "360UB57 frame\n"+string(data))
					return err
				},
			}
			var out bytes.Buffer
			err := newTestRuntime(bin, cmd).Run(context.Background(), "pdftotext:latest",
				[]string{"-layout", "-", "-"}, strings.NewReader("Grade 300"), &out)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := out.String(); got != "360UB57 frame\nGrade 300" {
				t.Errorf("output = %q", got)
			}
			want := bin + " run --rm -i --network=none --read-only --pull=never pdftotext:latest -layout - -"
			if len(cmd.calls) != 1 || cmd.calls[0] != want {
				t.Errorf("calls = %v, want [%s]", cmd.calls, want)
			}
		})
	}
}

func TestRun_FailureCarriesStderr(t *testing.T) {
	cmd := &fakeCommander{
		stderr: "Syntax Warning: May not be a PDF file\nSyntax Error: Couldn't read xref table\n",
		pipe: func(io.Reader, io.Writer) error {
			return errors.New("exit status 1")
		},
	}
	err := newTestRuntime("docker", cmd).Run(context.Background(), "pdftotext:latest", nil, strings.NewReader(""), io.Discard)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	want := "docker container pdftotext:latest failed: exit status 1: Syntax Error: Couldn't read xref table"
	if err.Error() != want {
		t.Errorf("err = %q, want %q", err.Error(), want)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestRuntime("podman", &fakeCommander{}).Run(ctx, "pdftotext:latest", nil, strings.NewReader(""), io.Discard)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if !strings.Contains(err.Error(), "stopped") {
		t.Errorf("err = %v, should report the container stopped", err)
	}
}

func TestWithDetail(t *testing.T) {
	base := errors.New("exit status 2")

	if got := withDetail(base, bytes.NewBufferString("  \n")); got != base {
		t.Errorf("blank stderr should return the error unchanged, got %v", got)
	}
	got := withDetail(base, bytes.NewBufferString("one line\n"))
	if !errors.Is(got, base) || got.Error() != "exit status 2: one line" {
		t.Errorf("withDetail = %v", got)
	}
}
