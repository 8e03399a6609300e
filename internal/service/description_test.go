package service

import "testing"

func TestMergeDescription(t *testing.T) {
	tests := []struct {
		name      string
		custom    string
		universal string
		want      string
	}{
		{"both present", "花束 A", "全店均一送貨", "花束 A\n\n\n全店均一送貨"},
		{"custom only", "花束 A", "", "花束 A"},
		{"universal only", "", "全店均一送貨", "全店均一送貨"},
		{"both blank", "", "   ", ""},
		{"whitespace trimmed", "  花束 A  ", "\n全店均一送貨\n", "花束 A\n\n\n全店均一送貨"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeDescription(tt.custom, tt.universal); got != tt.want {
				t.Errorf("MergeDescription(%q, %q) = %q, want %q", tt.custom, tt.universal, got, tt.want)
			}
		})
	}
}

func TestEscapeHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`5" pot & stand`, "5&quot; pot &amp; stand"},
		{"<b>bold</b>", "&lt;b&gt;bold&lt;/b&gt;"},
		{"it's fresh", "it&#039;s fresh"},
		{"line one\nline two", "line one<br>line two"},
		{"馬年賀年花", "馬年賀年花"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := EscapeHTML(tt.in); got != tt.want {
			t.Errorf("EscapeHTML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
