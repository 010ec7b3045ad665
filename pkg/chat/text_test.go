package chat

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"  Não  Vou ":   "nao vou",
		"PODE CANCELAR": "pode cancelar",
		"Já paguei!":    "ja paguei!",
		"":              "",
		"Opção\t2":      "opcao 2",
	}
	for input, expected := range cases {
		if got := Normalize(input); got != expected {
			t.Errorf("Normalize(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestContainsPhrase(t *testing.T) {
	if !ContainsPhrase("Sim, pode cancelar!", "pode cancelar") {
		t.Errorf("Expected phrase match with punctuation")
	}
	if !ContainsPhrase("SIM", "sim") {
		t.Errorf("Expected exact match ignoring case")
	}
	if ContainsPhrase("assim não", "sim") {
		t.Errorf("Phrases must match whole words")
	}
	if ContainsPhrase("anything", "") {
		t.Errorf("Empty phrase should never match")
	}
}

func TestIsPhrase(t *testing.T) {
	if !IsPhrase(" Ok! ", "ok") {
		t.Errorf("Expected whole reply match ignoring case and punctuation")
	}
	if IsPhrase("ok, mas qual é o endereço?", "ok") {
		t.Errorf("A longer reply must not match")
	}
	if IsPhrase("", "") {
		t.Errorf("Empty phrase should never match")
	}
}
