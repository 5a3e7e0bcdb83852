package python

import (
	"reflect"
	"testing"
)

func TestParseRequirement(t *testing.T) {
	tests := []struct {
		line string
		want requirement
		ok   bool
	}{
		{"requests==2.31.0", requirement{Name: "requests", Version: "2.31.0"}, true},
		{"requests===2.31.0", requirement{Name: "requests", Version: "2.31.0"}, true},
		{"numpy>=1.20.0,<2.0.0", requirement{Name: "numpy", Version: "0.0.0"}, true},
		{"Django~=4.2", requirement{Name: "django", Version: "0.0.0"}, true},
		{"httpx", requirement{Name: "httpx", Version: "0.0.0"}, true},
		{"flask==2.*", requirement{Name: "flask", Version: "0.0.0"}, true},
		{"requests[security,socks]==2.31.0", requirement{Name: "requests", Version: "2.31.0", Extras: []string{"security", "socks"}}, true},
		{`pywin32==306; sys_platform == "win32"`, requirement{Name: "pywin32", Version: "306", Markers: `sys_platform == "win32"`}, true},
		{"click==8.1.7  # cli", requirement{Name: "click", Version: "8.1.7"}, true},
		{"rich==13.7.0 --hash=sha256:abc", requirement{Name: "rich", Version: "13.7.0"}, true},
		{"Typing_Extensions==4.9.0", requirement{Name: "typing-extensions", Version: "4.9.0"}, true},
		{"# comment", requirement{}, false},
		{"", requirement{}, false},
		{"   ", requirement{}, false},
		{"-r base.txt", requirement{}, false},
		{"-e ./local-package", requirement{}, false},
		{"--index-url https://pypi.org/simple", requirement{}, false},
		{"git+https://github.com/user/repo.git#egg=repo", requirement{}, false},
		{"https://example.com/pkg-1.0.tar.gz", requirement{}, false},
		{"pkg @ https://example.com/pkg-1.0.tar.gz", requirement{}, false},
		{"./vendor/pkg", requirement{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := parseRequirement(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseRequirement(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestJoinContinuations(t *testing.T) {
	got := joinContinuations([]string{"requests==2.31.0 \\", "    --hash=sha256:abc", "click"})
	if len(got) != 2 {
		t.Fatalf("got %q", got)
	}
	r, ok := parseRequirement(got[0])
	if !ok || r.Name != "requests" || r.Version != "2.31.0" {
		t.Errorf("joined line parsed as %+v, %v", r, ok)
	}
}
