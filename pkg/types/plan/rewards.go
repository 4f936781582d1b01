package plan

// Default reward constants.
const (
	DefaultLinkAP  = 313
	DefaultFieldAP = 1250
)

// Rewards holds the AP tunables. With TieredLinks set, a link's AP depends on
// its length (see LinkTierAP) instead of LinkAP.
type Rewards struct {
	LinkAP      int  `json:"link_ap" yaml:"link_ap" mapstructure:"link_ap"`
	FieldAP     int  `json:"field_ap" yaml:"field_ap" mapstructure:"field_ap"`
	DepthBonus  int  `json:"depth_bonus" yaml:"depth_bonus" mapstructure:"depth_bonus"`
	TieredLinks bool `json:"tiered_links" yaml:"tiered_links" mapstructure:"tiered_links"`
}

// DefaultRewards returns the flat 313/1250 scheme with no depth bonus.
func DefaultRewards() Rewards {
	return Rewards{LinkAP: DefaultLinkAP, FieldAP: DefaultFieldAP}
}

// LinkReward returns the AP for a link of the given length in metres.
func (r Rewards) LinkReward(meters float64) int {
	if r.TieredLinks {
		return LinkTierAP(meters)
	}
	return r.LinkAP
}

// FieldReward returns the AP for f.
func (r Rewards) FieldReward(f Field) int {
	return r.FieldAP + f.Depth*r.DepthBonus
}

type linkTier struct {
	below float64
	ap    int
}

var linkTiers = []linkTier{
	{1_000, 313},
	{5_000, 625},
	{10_000, 938},
	{20_000, 1250},
	{40_000, 1563},
	{80_000, 1875},
	{160_000, 2188},
	{320_000, 2500},
	{640_000, 2813},
	{1_280_000, 3125},
}

// LinkTierAP returns the distance-tiered AP for a link length in metres.
func LinkTierAP(meters float64) int {
	for _, t := range linkTiers {
		if meters < t.below {
			return t.ap
		}
	}
	return 5000
}

//Personal.AI order the ending
