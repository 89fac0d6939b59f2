// Package eligibility decides whether a person may be offered the admin role
// at registration, based on a configured roster.
package eligibility

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Person identifies a roster member.
type Person struct {
	FirstName  string `yaml:"firstName" json:"firstName"`
	MiddleName string `yaml:"middleName" json:"middleName"`
	LastName   string `yaml:"lastName" json:"lastName"`
	Email      string `yaml:"email" json:"email"`
}

type rosterFile struct {
	Admins []Person `yaml:"admins"`
}

// Roster is an immutable allow-list of people eligible for the admin role.
type Roster struct {
	byEmail map[string][]Person
}

// NewRoster indexes people by normalised email. Entries lacking a first
// name, last name or email are ignored.
func NewRoster(people []Person) *Roster {
	r := &Roster{byEmail: make(map[string][]Person)}
	for _, p := range people {
		n := normalize(p)
		if n.FirstName == "" || n.LastName == "" || n.Email == "" {
			continue
		}
		r.byEmail[n.Email] = append(r.byEmail[n.Email], n)
	}
	return r
}

// LoadRoster reads a YAML roster of the form:
//
//	admins:
//	  - firstName: Ana
//	    middleName: Reyes
//	    lastName: Cruz
//	    email: ana.cruz@example.com
//
// An empty path yields an empty roster.
func LoadRoster(path string) (*Roster, error) {
	if path == "" {
		return NewRoster(nil), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return ParseRoster(raw)
}

// ParseRoster decodes a YAML roster document.
func ParseRoster(raw []byte) (*Roster, error) {
	var f rosterFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode roster: %w", err)
	}
	return NewRoster(f.Admins), nil
}

// Len returns the number of usable roster entries.
func (r *Roster) Len() int {
	n := 0
	for _, people := range r.byEmail {
		n += len(people)
	}
	return n
}

// IsEligible reports whether the given name and email match a roster entry.
// It is false whenever first name, last name or email is blank. A roster
// entry's middle name is only compared when the entry has one.
func (r *Roster) IsEligible(firstName, middleName, lastName, email string) bool {
	if r == nil {
		return false
	}
	q := normalize(Person{FirstName: firstName, MiddleName: middleName, LastName: lastName, Email: email})
	if q.FirstName == "" || q.LastName == "" || q.Email == "" {
		return false
	}
	for _, p := range r.byEmail[q.Email] {
		if p.FirstName != q.FirstName || p.LastName != q.LastName {
			continue
		}
		if p.MiddleName != "" && p.MiddleName != q.MiddleName {
			continue
		}
		return true
	}
	return false
}

func normalize(p Person) Person {
	return Person{
		FirstName:  fold(p.FirstName),
		MiddleName: fold(p.MiddleName),
		LastName:   fold(p.LastName),
		Email:      fold(p.Email),
	}
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
