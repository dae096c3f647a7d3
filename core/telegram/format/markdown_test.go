package format

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		version int
		want    string
	}{
		{"v1 plain", "Москва", MarkdownV1, "Москва"},
		{"v1 specials", "a_b*c[d`", MarkdownV1, "a\\_b\\*c\\[d\\`"},
		{"v2 dot", "1.5", MarkdownV2, "1\\.5"},
		{"v2 parens", "(x)", MarkdownV2, "\\(x\\)"},
		{"v2 hyphen", "a-b", MarkdownV2, "a\\-b"},
		{"v2 digits and punctuation untouched", "Рейс 2024, 10:15", MarkdownV2, "Рейс 2024, 10:15"},
		{"v2 range neighbours", "+,-./:;<=", MarkdownV2, "\\+,\\-\\./:;<\\="},
		{"v2 all specials", "_*[]()~`>#+-=|{}.!", MarkdownV2, "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := EscapeMarkdown(tc.in, tc.version)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}

	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("expected error for unsupported version")
	}
}
