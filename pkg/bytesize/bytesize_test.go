package bytesize

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Size
	}{
		{"1024", 1024},
		{"500B", 500},
		{"1K", KB},
		{"512KB", 512 * KB},
		{"512KiB", 512 * KB},
		{"5MB", 5 * MB},
		{"5 MB", 5 * MB},
		{"5mb", 5 * MB},
		{"1.5GB", Size(1.5 * float64(GB))},
		{"2TB", 2 * TB},
		{"  10M  ", 10 * MB},
		{"0", 0},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "   ", "MB", "5XB", "abc", "1..5MB"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestMustParse(t *testing.T) {
	if got := MustParse("2MB"); got != 2*MB {
		t.Errorf("MustParse(2MB) = %d", got)
	}

	defer func() {
		if recover() == nil {
			t.Error("MustParse with a bad value should panic")
		}
	}()
	MustParse("nope")
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   Size
		want string
	}{
		{0, "0B"},
		{500, "500B"},
		{KB, "1KB"},
		{5 * MB, "5MB"},
		{Size(1.5 * float64(GB)), "1.5GB"},
		{2 * TB, "2TB"},
		{-5 * MB, "-5MB"},
	}

	for _, tt := range tests {
		if got := Format(tt.in); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSize_Int64(t *testing.T) {
	if got := (5 * MB).Int64(); got != 5*1024*1024 {
		t.Errorf("Int64() = %d", got)
	}
	if got := (512 * KB).String(); got != "512KB" {
		t.Errorf("String() = %q", got)
	}
}
