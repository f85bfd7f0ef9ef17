package chat

import "testing"

func TestWantsImages(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"show me mango images", true},
		{"Show me some mangoes", true},
		{"can I see pictures of a brazilian mango?", true},
		{"send me a photo of a typical Brazilian mango", true},
		{"mango pictures please", true},
		{"quero ver uma manga", false},
		{"I want to see some mango photos", true},
		{"what varieties of mango grow in Brazil?", false},
		{"how sweet is the Palmer variety?", false},
		{"tell me about mango exports", false},
		{"", false},
		{"   ", false},
	}

	for _, tc := range cases {
		if got := WantsImages(tc.text); got != tc.want {
			t.Errorf("WantsImages(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}
