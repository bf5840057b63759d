package journal

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Nature & Co.", "nature and co"},
		{"nature and co", "nature and co"},
		{"IEEE Trans. Pattern Anal.", "ieee trans pattern anal"},
		{"Ecology-Letters", "ecology letters"},
		{"Physics – Uspekhi", "physics uspekhi"},
		{"Nature—Climate", "nature climate"},
		{"Revista Española de Cardiología", "revista espanola de cardiologia"},
		{"Zeitschrift für Physik", "zeitschrift fur physik"},
		{"Cell 🔬 Reports 😀", "cell reports"},
		{"  Lancet \t\n Oncology  ", "lancet oncology"},
		{"J. Am. Chem. Soc. 2020", "j am chem soc 2020"},
		{"日本語", ""},
		{"", ""},
	}
	for _, tt := range tests {
		got := Normalize(tt.input)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Nature & Co.",
		"Revista Española — de Cardiología",
		"ÅNGSTRÖM  ** Letters (b)",
		"a b",
		"Ǆemal & İstanbul",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeEquivalence(t *testing.T) {
	if Normalize("Nature & Co.") != Normalize("nature and co") {
		t.Errorf("expected %q and %q to normalize identically", "Nature & Co.", "nature and co")
	}
}

func TestGetNormalizer(t *testing.T) {
	tests := []struct {
		mode  string
		input string
		want  string
	}{
		{"venue", "Élodie & Co", "elodie and co"},
		{"none", "Élodie & Co", "Élodie & Co"},
		{"", "Élodie & Co", "elodie and co"},
		{"unknown_mode", "Élodie & Co", "elodie and co"},
	}
	for _, tt := range tests {
		fn := GetNormalizer(tt.mode)
		got := fn(tt.input)
		if got != tt.want {
			t.Errorf("GetNormalizer(%q)(%q) = %q, want %q", tt.mode, tt.input, got, tt.want)
		}
	}
}
