package normalize

import "testing"

func TestWeatherCode(t *testing.T) {
	tests := []struct {
		code int
		want CodeInfo
	}{
		{0, CodeInfo{"Clear sky", "01d"}},
		{1, CodeInfo{"Mainly clear", "02d"}},
		{2, CodeInfo{"Partly cloudy", "03d"}},
		{3, CodeInfo{"Overcast", "04d"}},
		{45, CodeInfo{"Fog", "50d"}},
		{51, CodeInfo{"Drizzle", "09d"}},
		{61, CodeInfo{"Rain", "10d"}},
		{71, CodeInfo{"Snow", "13d"}},
		{80, CodeInfo{"Rain showers", "09d"}},
		{95, CodeInfo{"Thunderstorm", "11d"}},
		{97, CodeInfo{"Thunderstorm with hail", "11d"}},
		{120, CodeInfo{"Unknown", "01d"}},
	}
	for _, tt := range tests {
		if got := WeatherCode(tt.code); got != tt.want {
			t.Errorf("WeatherCode(%d) = %+v, want %+v", tt.code, got, tt.want)
		}
	}
}

func TestCategoriesStringPassThrough(t *testing.T) {
	got := Categories("News, Technology")
	if got == nil || *got != "News, Technology" {
		t.Fatalf("expected pass-through, got %v", got)
	}
}

func TestCategoriesObjectJoin(t *testing.T) {
	got := Categories(map[string]any{"1": "News", "2": "Tech"})
	if got == nil || *got != "News, Tech" {
		t.Fatalf("expected \"News, Tech\", got %v", got)
	}
}

func TestCategoriesAbsent(t *testing.T) {
	if got := Categories(nil); got != nil {
		t.Fatalf("expected nil for absent categories, got %q", *got)
	}
}

func TestUSFM(t *testing.T) {
	tests := []struct {
		ref  string
		want string
	}{
		{"John 3:16", "JHN.3.16"},
		{"Psalm 23:1-6", "PSA.23.1-PSA.23.6"},
		{"Psalms 23:1-6", "PSA.23.1-PSA.23.6"},
		{"Genesis 1", "GEN.1"},
		{"Song of Solomon 2:1", "SNG.2.1"},
		{"1 John 4:8", "1JN.4.8"},
		{"Foobar 1:1", "Foobar 1:1"},
	}
	for _, tt := range tests {
		if got := USFM(tt.ref); got != tt.want {
			t.Errorf("USFM(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	items := make([]int, 25)
	if got := Truncate(items, MaxListItems); len(got) != 10 {
		t.Fatalf("expected 10 items, got %d", len(got))
	}
	short := []int{1, 2}
	if got := Truncate(short, MaxListItems); len(got) != 2 {
		t.Fatalf("expected short slice untouched, got %d items", len(got))
	}
}

func TestRound1(t *testing.T) {
	if got := Round1(21.37); got != 21.4 {
		t.Fatalf("Round1(21.37) = %v", got)
	}
	if got := Round1(-3.14); got != -3.1 {
		t.Fatalf("Round1(-3.14) = %v", got)
	}
}
