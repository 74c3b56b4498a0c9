package swipe

import (
	"strings"

	"github.com/oggyb/matchbot/internal/db"
)

// DefaultAgeSpread is the default age window around the viewer when no
// explicit preferences are stored.
const DefaultAgeSpread = 5

// criteria is the compatibility filter for one viewer.
type criteria struct {
	viewer   *db.Profile
	explicit bool
	minAge   int
	maxAge   int
	gender   db.Gender
	cityOnly bool
}

func newCriteria(viewer *db.Profile, pref *db.SearchPreference) criteria {
	c := criteria{viewer: viewer}
	if pref != nil {
		c.explicit = true
		c.minAge = pref.MinAge
		c.maxAge = pref.MaxAge
		c.gender = pref.PreferredGender
		c.cityOnly = pref.CityOnly
	} else {
		c.minAge = viewer.Age - DefaultAgeSpread
		c.maxAge = viewer.Age + DefaultAgeSpread
	}
	if c.minAge < db.MinAge {
		c.minAge = db.MinAge
	}
	return c
}

// accepts applies the filter that is not pushed down to SQL.
func (c criteria) accepts(candidate *db.Profile) bool {
	if candidate.Age < c.minAge || (c.maxAge > 0 && candidate.Age > c.maxAge) {
		return false
	}
	if c.explicit {
		if c.gender != "" && candidate.Gender != c.gender {
			return false
		}
		if c.cityOnly && !strings.EqualFold(strings.TrimSpace(candidate.City), strings.TrimSpace(c.viewer.City)) {
			return false
		}
		return true
	}
	return Compatible(c.viewer, candidate)
}

// Compatible is the default symmetric rule: each side's orientation must accept
// the other side's gender.
func Compatible(a, b *db.Profile) bool {
	return accepts(a.Orientation, a.Gender, b.Gender) && accepts(b.Orientation, b.Gender, a.Gender)
}

// accepts reports whether someone of gender self with orientation o is open to gender other.
// bi and other orientations accept everyone; the binary orientations are only
// defined between male and female.
func accepts(o db.Orientation, self, other db.Gender) bool {
	switch o {
	case db.OrientationBi, db.OrientationOther:
		return true
	case db.OrientationHetero:
		return binary(self) && binary(other) && self != other
	case db.OrientationHomo:
		return binary(self) && self == other
	}
	return false
}

func binary(g db.Gender) bool {
	return g == db.GenderMale || g == db.GenderFemale
}
