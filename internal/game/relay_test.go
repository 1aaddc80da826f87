package game

import (
	"testing"

	"backend/internal/models"
)

func relayWorld() models.CitySet {
	return models.CitySet{
		"tokyo":   {Name: "Tokyo", Lat: 35.6762, Lng: 139.6503, Brightness: 100},
		"osaka":   {Name: "Osaka", Lat: 34.6937, Lng: 135.5023, Brightness: 40},
		"seoul":   {Name: "Seoul", Lat: 37.5665, Lng: 126.9780, Brightness: 70},
		"newyork": {Name: "New York", Lat: 40.7128, Lng: -74.0060, Brightness: 10},
	}
}

func TestSelectRelayTargetPicksNearestUnlit(t *testing.T) {
	target, found := SelectRelayTarget("tokyo", relayWorld())
	if !found {
		t.Fatal("expected a relay target")
	}
	if target.Name != "Osaka" {
		t.Errorf("target = %q, want Osaka", target.Name)
	}
}

func TestSelectRelayTargetSkipsLitCities(t *testing.T) {
	cities := relayWorld()
	// Osaka lit: the next nearest unlit city takes over.
	c := cities["osaka"]
	c.Brightness = 100
	cities["osaka"] = c

	target, found := SelectRelayTarget("tokyo", cities)
	if !found {
		t.Fatal("expected a relay target")
	}
	if target.Name != "Seoul" {
		t.Errorf("target = %q, want Seoul", target.Name)
	}
}

func TestSelectRelayTargetNoneWhenAllLit(t *testing.T) {
	cities := relayWorld()
	for key, c := range cities {
		c.Brightness = 100
		cities[key] = c
	}

	if _, found := SelectRelayTarget("tokyo", cities); found {
		t.Fatal("expected no relay target when all cities are lit")
	}
}

func TestSelectRelayTargetSingletonSet(t *testing.T) {
	cities := models.CitySet{
		"tokyo": {Name: "Tokyo", Lat: 35.6762, Lng: 139.6503, Brightness: 100},
	}
	if _, found := SelectRelayTarget("tokyo", cities); found {
		t.Fatal("expected no relay target in a singleton set")
	}
}

func TestSelectRelayTargetUnknownSource(t *testing.T) {
	if _, found := SelectRelayTarget("atlantis", relayWorld()); found {
		t.Fatal("expected no relay target for unknown source key")
	}
}

func TestSelectRelayTargetTieBreakIsDeterministic(t *testing.T) {
	// Two candidates at identical distance from the source. The first key
	// in sorted order must win, every time.
	cities := models.CitySet{
		"center": {Name: "Center", Lat: 0, Lng: 0, Brightness: 100},
		"east":   {Name: "East", Lat: 0, Lng: 10, Brightness: 50},
		"west":   {Name: "West", Lat: 0, Lng: -10, Brightness: 50},
	}

	for i := 0; i < 20; i++ {
		target, found := SelectRelayTarget("center", cities)
		if !found {
			t.Fatal("expected a relay target")
		}
		if target.Name != "East" {
			t.Fatalf("iteration %d: target = %q, want East (first sorted key)", i, target.Name)
		}
	}
}
