package config

// DefaultUniverse is the default watch pool: large caps across sectors plus
// popular ETFs.
func DefaultUniverse() []UniverseItem {
	return []UniverseItem{
		// Semiconductors
		{"2330.TW", "TSMC"},
		{"2454.TW", "MediaTek"},
		{"3711.TW", "ASE Technology"},
		{"2303.TW", "UMC"},
		{"3034.TW", "Novatek"},
		{"2379.TW", "Realtek"},
		{"3529.TW", "eMemory"},
		{"6770.TW", "PSMC"},
		// Electronics
		{"2317.TW", "Hon Hai"},
		{"2382.TW", "Quanta"},
		{"2357.TW", "ASUS"},
		{"3231.TW", "Wistron"},
		{"2345.TW", "Accton"},
		{"2308.TW", "Delta Electronics"},
		{"2412.TW", "Chunghwa Telecom"},
		{"4904.TW", "Far EasTone"},
		// Financials
		{"2881.TW", "Fubon Financial"},
		{"2882.TW", "Cathay Financial"},
		{"2884.TW", "E.SUN Financial"},
		{"2886.TW", "Mega Financial"},
		{"2891.TW", "CTBC Financial"},
		{"2892.TW", "First Financial"},
		// Traditional industries
		{"1301.TW", "Formosa Plastics"},
		{"1303.TW", "Nan Ya Plastics"},
		{"2002.TW", "China Steel"},
		{"1216.TW", "Uni-President"},
		{"2207.TW", "Hotai Motor"},
		{"9910.TW", "Feng Tay"},
		// Shipping
		{"2603.TW", "Evergreen Marine"},
		{"2609.TW", "Yang Ming"},
		{"2615.TW", "Wan Hai"},
		// Biotech
		{"6446.TW", "PharmaEssentia"},
		{"4743.TW", "Oneness Biotech"},
		// ETFs
		{"0050.TW", "Yuanta Taiwan 50"},
		{"0056.TW", "Yuanta High Dividend"},
		{"00878.TW", "Cathay ESG High Dividend"},
		{"00919.TW", "Capital High Dividend"},
	}
}
