package resolve

import "testing"

func TestParentSequenceKey(t *testing.T) {
	cases := []struct {
		sequence string
		want     string
	}{
		{"0290", "0290"},
		{"0295", "0290"},
		{"0299", "0290"},
		{"1234", "1230"},
		{"29", "0020"},
		{"5", "0000"},
		{"", "0000"},
	}
	for _, tc := range cases {
		if got := ParentSequenceKey(tc.sequence); got != tc.want {
			t.Errorf("ParentSequenceKey(%q) = %q, want %q", tc.sequence, got, tc.want)
		}
	}
}

func TestResolveSequenceFolder_Known(t *testing.T) {
	r := testResolver(t)

	got := r.ResolveSequenceFolder("0290")
	if got.ParentFolder != "0290_Diner" || got.ShotCode != "DIN" || got.IsFallback {
		t.Errorf("ResolveSequenceFolder(0290) = %+v", got)
	}

	// Same decade, different shot.
	got = r.ResolveSequenceFolder("0293")
	if got.ParentFolder != "0290_Diner" || got.ShotCode != "DIN" || got.IsFallback {
		t.Errorf("ResolveSequenceFolder(0293) = %+v", got)
	}
}

func TestResolveSequenceFolder_Fallback(t *testing.T) {
	r := testResolver(t)

	got := r.ResolveSequenceFolder("9999")
	if got.ParentFolder != "9990_Unknown" {
		t.Errorf("ParentFolder = %q, want 9990_Unknown", got.ParentFolder)
	}
	if got.ShotCode != "UNK" {
		t.Errorf("ShotCode = %q, want UNK", got.ShotCode)
	}
	if !got.IsFallback {
		t.Error("IsFallback = false, want true")
	}
}

func TestResolveSequenceFolder_Total(t *testing.T) {
	r := testResolver(t)

	// Every input produces a resolution, including ones that are not
	// sequence numbers at all.
	for _, seq := range []string{"0000", "8881", "12345", "7", "", "xyz"} {
		got := r.ResolveSequenceFolder(seq)
		if got.ParentFolder == "" || got.ShotCode == "" {
			t.Errorf("ResolveSequenceFolder(%q) = %+v, want populated resolution", seq, got)
		}
	}
}
