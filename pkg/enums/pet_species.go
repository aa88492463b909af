package enums

import "fmt"

// PetSpecies is an open-ended species label with a known common set.
type PetSpecies string

const (
	PetSpeciesDog    PetSpecies = "dog"
	PetSpeciesCat    PetSpecies = "cat"
	PetSpeciesBird   PetSpecies = "bird"
	PetSpeciesRabbit PetSpecies = "rabbit"
	PetSpeciesOther  PetSpecies = "other"
)

var validPetSpecies = []PetSpecies{
	PetSpeciesDog,
	PetSpeciesCat,
	PetSpeciesBird,
	PetSpeciesRabbit,
	PetSpeciesOther,
}

// String implements fmt.Stringer.
func (p PetSpecies) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PetSpecies.
func (p PetSpecies) IsValid() bool {
	for _, candidate := range validPetSpecies {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePetSpecies converts raw input into a PetSpecies.
func ParsePetSpecies(value string) (PetSpecies, error) {
	for _, candidate := range validPetSpecies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pet species %q", value)
}
