package theme

import "testing"

func TestByName(t *testing.T) {
	for _, name := range Names() {
		if got := ByName(name).Name; got != name {
			t.Errorf("ByName(%q).Name = %q", name, got)
		}
	}
	if ByName("nope").Name != FlexokiDark.Name {
		t.Error("unknown theme should fall back to flexoki-dark")
	}
}

func TestSetActive(t *testing.T) {
	defer SetActive(FlexokiDark.Name)
	SetActive("tokyo-night")
	if Active.Name != "tokyo-night" {
		t.Errorf("Active = %q", Active.Name)
	}
}

func TestSigned(t *testing.T) {
	if FlexokiDark.Signed(0) != FlexokiDark.Green || FlexokiDark.Signed(-1) != FlexokiDark.Red {
		t.Error("Signed should be green at zero and red below")
	}
}
