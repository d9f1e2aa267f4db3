package normalize_test

import (
	"testing"

	"backlog/internal/normalize"
)

func TestTitle(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"lowercases and trims", "  Chrono Trigger  ", "chrono trigger"},
		{"strips edition markers", "Dark Souls Remastered", "dark souls"},
		{"strips goty marker", "The Witcher 3 Game of the Year Edition", "the witcher 3"},
		{"strips parentheticals", "Metroid Prime (NTSC) [Disc 1]", "metroid prime"},
		{"strips trademark symbols", "Halo™", "halo"},
		{"roman numerals become digits", "Final Fantasy VII", "final fantasy 7"},
		{"folds accents", "Pokémon Snap", "pokemon snap"},
		{"drops punctuation", "Baldur's Gate: Enhanced", "baldur s gate enhanced"},
		{"drops generic subtitles", "Rayman Origins", "rayman"},
		{"empty input", "", ""},
		{"only noise", "(™)", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalize.Title(tc.raw); got != tc.want {
				t.Fatalf("Title(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestTitleDeterministic(t *testing.T) {
	raw := "The Legend of Zelda: Ocarina of Time 3D (EU)"
	first := normalize.Title(raw)
	for i := 0; i < 10; i++ {
		if got := normalize.Title(raw); got != first {
			t.Fatalf("normalization unstable: %q vs %q", got, first)
		}
	}
}

func TestPlatform(t *testing.T) {
	cases := []struct {
		raw        string
		wantNorm   string
		wantFamily string
	}{
		{"SNES", "snes", "nintendo"},
		{"PlayStation 2", "playstation 2", "playstation"},
		{"PS1", "ps1", "playstation"},
		{"Xbox Series X/S", "xbox series x s", "xbox"},
		{"PC (Windows)", "pc windows", "pc"},
		{"Sega Mega Drive", "sega mega drive", "sega"},
		{"Neo Geo", "neo geo", "neo-geo"},
		{"Amiga", "amiga", ""},
		{"", "", ""},
		{"   ", "", ""},
	}
	for _, tc := range cases {
		norm, family := normalize.Platform(tc.raw)
		if norm != tc.wantNorm || family != tc.wantFamily {
			t.Errorf("Platform(%q) = (%q, %q), want (%q, %q)", tc.raw, norm, family, tc.wantNorm, tc.wantFamily)
		}
	}
}

func TestFamilies(t *testing.T) {
	families := normalize.Families([]string{"PS4", "PS5", "Nintendo Switch", "Amiga"})
	if len(families) != 2 {
		t.Fatalf("expected 2 families, got %v", families)
	}
	for _, want := range []string{"playstation", "nintendo"} {
		if _, ok := families[want]; !ok {
			t.Errorf("missing family %q in %v", want, families)
		}
	}
}
