package model

import "testing"

func TestPropertyPatchApply(t *testing.T) {
	desc := "old"
	p := &Property{Title: "Flat", Price: "50L", Description: &desc, Facilities: []string{"gym"}}

	price := "55L"
	bhk := "3"
	PropertyPatch{Price: &price, BHK: &bhk}.Apply(p)

	if p.Title != "Flat" || p.Price != "55L" {
		t.Fatalf("unexpected scalar fields: %+v", p)
	}
	if p.BHK == nil || *p.BHK != "3" {
		t.Fatalf("bhk not set")
	}
	if *p.Description != "old" || len(p.Facilities) != 1 {
		t.Fatalf("absent fields must be kept")
	}

	bhk = "4"
	if *p.BHK != "3" {
		t.Fatalf("patch must copy values, not alias them")
	}
}
