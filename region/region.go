// Package region models the regions of the cloud platform and the isolation
// class that decides whether two regions can see each other's resources.
package region

import "os"

// Kind is the isolation class of a region. Resources in global regions are
// mutually visible, financial regions form their own compliance cluster and
// internal regions are isolated from everything but themselves.
type Kind int

const (
	KindGlobal Kind = iota
	KindFinancial
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindGlobal:
		return "global"
	case KindFinancial:
		return "financial"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

const financialSuffix = "-fsi"

// Region identifies a deployment region of the platform by its canonical id,
// for example "ap-guangzhou".
type Region struct {
	ID   string
	Kind Kind
}

// New builds a region from a bare id, inferring the kind: ids with the
// "-fsi" suffix are financial, everything else is treated as internal.
// Use the predefined package variables for the public regions, which are
// global.
func New(id string) Region {
	kind := KindInternal
	if hasFinancialSuffix(id) {
		kind = KindFinancial
	}
	return Region{ID: id, Kind: kind}
}

// NewWithKind builds a region with an explicit kind, bypassing inference.
func NewWithKind(id string, kind Kind) Region {
	return Region{ID: id, Kind: kind}
}

func hasFinancialSuffix(id string) bool {
	return len(id) >= len(financialSuffix) && id[len(id)-len(financialSuffix):] == financialSuffix
}

// ReachableFrom reports whether resources in r can be addressed by calls
// originating in o. Regions reach themselves; otherwise both must share a
// kind other than KindInternal.
func (r Region) ReachableFrom(o Region) bool {
	if r == o {
		return true
	}
	return r.Kind == o.Kind && r.Kind != KindInternal
}

func (r Region) String() string {
	return r.ID
}

// FromEnv returns the default region configured through TENCENTCLOUD_REGION,
// or nil when the variable is unset.
func FromEnv() *Region {
	id := os.Getenv("TENCENTCLOUD_REGION")
	if id == "" {
		return nil
	}
	r := New(id)
	return &r
}

// The public regions of the platform.
var (
	Bangkok       = NewWithKind("ap-bangkok", KindGlobal)
	Beijing       = NewWithKind("ap-beijing", KindGlobal)
	Chengdu       = NewWithKind("ap-chengdu", KindGlobal)
	Chongqing     = NewWithKind("ap-chongqing", KindGlobal)
	Guangzhou     = NewWithKind("ap-guangzhou", KindGlobal)
	HongKong      = NewWithKind("ap-hongkong", KindGlobal)
	Jakarta       = NewWithKind("ap-jakarta", KindGlobal)
	Mumbai        = NewWithKind("ap-mumbai", KindGlobal)
	Nanjing       = NewWithKind("ap-nanjing", KindGlobal)
	Seoul         = NewWithKind("ap-seoul", KindGlobal)
	Shanghai      = NewWithKind("ap-shanghai", KindGlobal)
	Singapore     = NewWithKind("ap-singapore", KindGlobal)
	Tokyo         = NewWithKind("ap-tokyo", KindGlobal)
	Frankfurt     = NewWithKind("eu-frankfurt", KindGlobal)
	Ashburn       = NewWithKind("na-ashburn", KindGlobal)
	SiliconValley = NewWithKind("na-siliconvalley", KindGlobal)
	SaoPaulo      = NewWithKind("sa-saopaulo", KindGlobal)

	// Financial compliance regions.
	BeijingFSI  = NewWithKind("ap-beijing-fsi", KindFinancial)
	ShanghaiFSI = NewWithKind("ap-shanghai-fsi", KindFinancial)
	ShenzhenFSI = NewWithKind("ap-shenzhen-fsi", KindFinancial)
)
