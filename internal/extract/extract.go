// Package extract turns free-form product posts into structured listings.
//
// Everything here is pure: a parse depends only on the message text and the
// LookupContext it is given.
package extract

// ExtractedListing is one listing candidate parsed from a single post. Empty
// strings mean the field was not found.
type ExtractedListing struct {
	Name            string   `json:"name"`
	Brand           string   `json:"brand"`
	Size            string   `json:"size"`
	AdditionalSizes []string `json:"additional_sizes"`
	Color           string   `json:"color"`
	Price           string   `json:"price"`
	Confidence      float64  `json:"confidence"`
}

// Complete reports whether the listing has everything needed to publish it.
func (l ExtractedListing) Complete() bool {
	return l.Name != "" && l.Price != "" && l.Size != ""
}

// Missing names the first required field that is empty, or "".
func (l ExtractedListing) Missing() string {
	switch {
	case l.Name == "":
		return "name"
	case l.Price == "":
		return "price"
	case l.Size == "":
		return "size"
	}
	return ""
}

// AllSizes returns the primary size followed by the additional ones.
func (l ExtractedListing) AllSizes() []string {
	if l.Size == "" {
		return nil
	}
	return append([]string{l.Size}, l.AdditionalSizes...)
}

// Parse runs the whole pipeline over one post.
func Parse(text string, lc *LookupContext) ExtractedListing {
	if lc == nil {
		lc = defaultLookup
	}
	listing := ExtractedListing{AdditionalSizes: []string{}}
	lines := Normalize(text)
	if len(lines) == 0 {
		return listing
	}

	listing.Name = lc.ExtractName(lines)
	listing.Brand = lc.ExtractBrand(lines, listing.Name)
	size, additional := lc.ExtractSizes(lines)
	listing.Size = size
	if additional != nil {
		listing.AdditionalSizes = additional
	}
	listing.Color = lc.ExtractColors(lines, listing.Name)
	listing.Price = lc.ExtractPrice(lines, listing.Name)
	listing.Confidence = Score(listing.Name, listing.Price, listing.Size, listing.Brand, listing.Color)
	return listing
}

var defaultLookup = NewLookupContext(nil, nil)

// Extractor parses posts against whatever lookup snapshot is current.
type Extractor struct {
	lookup *LookupHolder
}

func NewExtractor(lookup *LookupHolder) *Extractor {
	if lookup == nil {
		lookup = NewLookupHolder(nil)
	}
	return &Extractor{lookup: lookup}
}

func (e *Extractor) Parse(text string) ExtractedListing {
	return Parse(text, e.lookup.Load())
}

// Lookup exposes the holder so reference data can be refreshed.
func (e *Extractor) Lookup() *LookupHolder {
	return e.lookup
}
