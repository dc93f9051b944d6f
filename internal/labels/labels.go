// Package labels maps series identifiers to axis-label metadata for the
// known kinds of trajectory observables.
package labels

import "strings"

type Kind int

const (
	KindUnknown Kind = iota
	KindRMSD
	KindRg
	KindHbond
	KindSASA
)

// Label holds the axis text for one series kind. XVG uses xmgrace escape
// sequences; Plot is plain text for raster images.
type Label struct {
	Kind Kind
	Name string
	XVG  string
	Plot string
}

var known = []Label{
	{Kind: KindRMSD, Name: "RMSD", XVG: `RMSD (\cE\C)`, Plot: "RMSD (Å)"},
	{Kind: KindRg, Name: "Rg", XVG: `Radius of gyration (\cE\C)`, Plot: "Radius of gyration (Å)"},
	{Kind: KindHbond, Name: "Hbond", XVG: "Number of hydrogen bonds", Plot: "Number of hydrogen bonds"},
	{Kind: KindSASA, Name: "SASA", XVG: `SASA (nm\S2\N)`, Plot: "SASA (nm²)"},
}

// KindOf classifies a series identifier by the first known kind name it
// contains, checked in the order RMSD, Rg, Hbond, SASA.
func KindOf(series string) Kind {
	for _, l := range known {
		if strings.Contains(series, l.Name) {
			return l.Kind
		}
	}
	return KindUnknown
}

// For returns the label of a series. Unrecognised identifiers fall back
// to the raw identifier on both axes.
func For(series string) Label {
	kind := KindOf(series)
	for _, l := range known {
		if l.Kind == kind {
			return l
		}
	}
	return Label{Kind: KindUnknown, Name: series, XVG: series, Plot: series}
}

func (k Kind) String() string {
	for _, l := range known {
		if l.Kind == k {
			return l.Name
		}
	}
	return "unknown"
}
