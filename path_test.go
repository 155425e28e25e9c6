package muon

import "testing"

func TestSplitPath(t *testing.T) {
	cases := []struct {
		in       string
		dir      string
		base     string
		wantErr  bool
	}{
		{"/home/user/file.txt", "/home/user", "file.txt", false},
		{"/file.txt", "/", "file.txt", false},
		{"/", "/", "", false},
		{"/home/user//file.txt", "/home/user", "file.txt", false},
		{"//file.txt", "/", "file.txt", false},
		{"///", "/", "", false},
		{"relative", "", "", true},
	}

	for _, c := range cases {
		dir, base, err := splitPath(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("splitPath(%q): expected error, got none", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("splitPath(%q): unexpected error %v", c.in, err)
			continue
		}
		if dir != c.dir || base != c.base {
			t.Errorf("splitPath(%q) = (%q, %q), want (%q, %q)", c.in, dir, base, c.dir, c.base)
		}
	}
}

func TestSplitComponents(t *testing.T) {
	got := splitComponents("/a//b///c/")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitComponents: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitComponents: got %v, want %v", got, want)
		}
	}
}
