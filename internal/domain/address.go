package domain

import "strings"

// Address locates a listing. City and country are mandatory.
type Address struct {
	Street     string
	District   string
	City       string
	Region     string
	Country    string
	PostalCode string
}

// NewAddress trims and validates the parts of an address.
func NewAddress(street, district, city, region, country, postalCode string) (Address, error) {
	a := Address{
		Street:     strings.TrimSpace(street),
		District:   strings.TrimSpace(district),
		City:       strings.TrimSpace(city),
		Region:     strings.TrimSpace(region),
		Country:    strings.ToUpper(strings.TrimSpace(country)),
		PostalCode: strings.TrimSpace(postalCode),
	}
	if a.City == "" {
		return Address{}, invalid("address.city", "is required")
	}
	if len(a.Country) != 2 {
		return Address{}, invalid("address.country", "%q is not a 2-letter country code", country)
	}
	return a, nil
}

func (a Address) String() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{a.Street, a.District, a.City, a.Region, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
