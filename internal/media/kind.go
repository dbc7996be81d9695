package media

import (
	"fmt"
	"strings"
)

// AssetKind identifies an image slot on a work.
type AssetKind int

const (
	Banner AssetKind = iota + 1
	Cover
)

// Kinds lists every slot in display order.
var Kinds = []AssetKind{Banner, Cover}

func (k AssetKind) String() string {
	switch k {
	case Banner:
		return "banner"
	case Cover:
		return "cover"
	default:
		return fmt.Sprintf("asset(%d)", int(k))
	}
}

// ParseAssetKind accepts "banner" or "cover" in any case.
func ParseAssetKind(value string) (AssetKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "banner":
		return Banner, nil
	case "cover":
		return Cover, nil
	default:
		return 0, fmt.Errorf("unknown asset kind %q (expected banner or cover)", value)
	}
}

// Constraints bounds a single slot. Dimensions are natural pixel sizes.
type Constraints struct {
	MaxSizeMB int
	MaxWidth  int
	MaxHeight int
}

// MaxBytes converts the megabyte limit using binary megabytes.
func (c Constraints) MaxBytes() int64 {
	return int64(c.MaxSizeMB) << 20
}

var (
	BannerConstraints = Constraints{MaxSizeMB: 20, MaxWidth: 1345, MaxHeight: 256}
	CoverConstraints  = Constraints{MaxSizeMB: 20, MaxWidth: 500, MaxHeight: 800}
)

// Profiles maps each slot to its constraints.
type Profiles struct {
	Banner Constraints
	Cover  Constraints
}

// DefaultProfiles returns the stock banner and cover limits.
func DefaultProfiles() Profiles {
	return Profiles{Banner: BannerConstraints, Cover: CoverConstraints}
}

// For returns the constraints for kind. Unknown kinds get the cover profile.
func (p Profiles) For(kind AssetKind) Constraints {
	if kind == Banner {
		return p.Banner
	}
	return p.Cover
}
