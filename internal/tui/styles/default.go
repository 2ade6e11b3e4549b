package styles

// NewDefaultTheme creates the dark indigo theme of Ds Siaka.
func NewDefaultTheme() *Theme {
	return &Theme{
		Name:   "siaka",
		IsDark: true,

		Primary:   ParseHex("#818cf8"), // indigo
		Secondary: ParseHex("#a5b4fc"),
		Tertiary:  ParseHex("#312e81"),
		Accent:    ParseHex("#c4b5fd"), // violet

		BgBase:    ParseHex("#0f172a"),
		BgSubtle:  ParseHex("#1e293b"),
		BgOverlay: ParseHex("#334155"),

		FgBase:   ParseHex("#e2e8f0"),
		FgMuted:  ParseHex("#94a3b8"),
		FgSubtle: ParseHex("#64748b"),

		Border:      ParseHex("#334155"),
		BorderFocus: ParseHex("#818cf8"),

		Success: ParseHex("#4ade80"),
		Error:   ParseHex("#f87171"),
		Warning: ParseHex("#fbbf24"),
		Info:    ParseHex("#60a5fa"),
	}
}
