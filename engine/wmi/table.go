package wmi

var regions = []Region{
	{
		Name:  "Africa",
		Codes: "ABCDEFGH",
		Countries: []Country{
			{Name: "South Africa", Ranges: []Range{{"AA", "AH"}}},
			{Name: "Ivory Coast", Ranges: []Range{{"AJ", "AN"}}},
			{Name: "Angola", Ranges: []Range{{"BA", "BE"}}},
			{Name: "Kenya", Ranges: []Range{{"BF", "BK"}}},
			{Name: "Tanzania", Ranges: []Range{{"BL", "BR"}}},
			{Name: "Benin", Ranges: []Range{{"CA", "CE"}}},
			{Name: "Madagascar", Ranges: []Range{{"CF", "CK"}}},
			{Name: "Tunisia", Ranges: []Range{{"CL", "CR"}}},
			{Name: "Egypt", Ranges: []Range{{"DA", "DE"}}},
			{Name: "Morocco", Ranges: []Range{{"DF", "DK"}}},
			{Name: "Zambia", Ranges: []Range{{"DL", "DR"}}},
			{Name: "Ethiopia", Ranges: []Range{{"EA", "EE"}}},
			{Name: "Mozambique", Ranges: []Range{{"EF", "EK"}}},
			{Name: "Ghana", Ranges: []Range{{"FA", "FE"}}},
			{Name: "Nigeria", Ranges: []Range{{"FF", "FK"}}},
		},
	},
	{
		Name:  "Asia",
		Codes: "JKLMNPR",
		Countries: []Country{
			{Name: "Japan", Ranges: []Range{{"JA", "J0"}}},
			{Name: "Sri Lanka", Ranges: []Range{{"KA", "KE"}}},
			{Name: "Israel", Ranges: []Range{{"KF", "KK"}}},
			{Name: "South Korea", Ranges: []Range{{"KL", "KR"}}},
			{Name: "Kazakhstan", Ranges: []Range{{"KS", "K0"}}},
			{Name: "China", Ranges: []Range{{"LA", "L0"}}},
			{Name: "India", Ranges: []Range{{"MA", "ME"}}},
			{Name: "Indonesia", Ranges: []Range{{"MF", "MK"}}},
			{Name: "Thailand", Ranges: []Range{{"ML", "MR"}}},
			{Name: "Iran", Ranges: []Range{{"NA", "NE"}}},
			{Name: "Pakistan", Ranges: []Range{{"NF", "NK"}}},
			{Name: "Turkey", Ranges: []Range{{"NL", "NR"}}},
			{Name: "Philippines", Ranges: []Range{{"PA", "PE"}}},
			{Name: "Singapore", Ranges: []Range{{"PF", "PK"}}},
			{Name: "Malaysia", Ranges: []Range{{"PL", "PR"}}},
			{Name: "United Arab Emirates", Ranges: []Range{{"RA", "RE"}}},
			{Name: "Taiwan", Ranges: []Range{{"RF", "RK"}}},
			{Name: "Vietnam", Ranges: []Range{{"RL", "RR"}}},
			{Name: "Saudi Arabia", Ranges: []Range{{"RS", "R0"}}},
		},
	},
	{
		Name:  "Europe",
		Codes: "STUVWXYZ",
		Countries: []Country{
			{Name: "United Kingdom", Ranges: []Range{{"SA", "SM"}}},
			{Name: "Germany", Ranges: []Range{{"SN", "ST"}, {"WA", "W0"}}},
			{Name: "Poland", Ranges: []Range{{"SU", "SZ"}}},
			{Name: "Latvia", Ranges: []Range{{"S1", "S4"}}},
			{Name: "Switzerland", Ranges: []Range{{"TA", "TH"}}},
			{Name: "Czech Republic", Ranges: []Range{{"TJ", "TP"}}},
			{Name: "Hungary", Ranges: []Range{{"TR", "TV"}}},
			{Name: "Portugal", Ranges: []Range{{"TW", "T1"}}},
			{Name: "Denmark", Ranges: []Range{{"UH", "UM"}}},
			{Name: "Ireland", Ranges: []Range{{"UN", "UT"}}},
			{Name: "Romania", Ranges: []Range{{"UU", "UZ"}}},
			{Name: "Slovakia", Ranges: []Range{{"U5", "U7"}}},
			{Name: "Austria", Ranges: []Range{{"VA", "VE"}}},
			{Name: "France", Ranges: []Range{{"VF", "VR"}}},
			{Name: "Spain", Ranges: []Range{{"VS", "VW"}}},
			{Name: "Serbia", Ranges: []Range{{"VX", "V2"}}},
			{Name: "Croatia", Ranges: []Range{{"V3", "V5"}}},
			{Name: "Estonia", Ranges: []Range{{"V6", "V0"}}},
			{Name: "Bulgaria", Ranges: []Range{{"XA", "XE"}}},
			{Name: "Greece", Ranges: []Range{{"XF", "XK"}}},
			{Name: "Netherlands", Ranges: []Range{{"XL", "XR"}}},
			{Name: "Russia", Ranges: []Range{{"XS", "XW"}, {"X3", "X0"}}},
			{Name: "Luxembourg", Ranges: []Range{{"XX", "X2"}}},
			{Name: "Belgium", Ranges: []Range{{"YA", "YE"}}},
			{Name: "Finland", Ranges: []Range{{"YF", "YK"}}},
			{Name: "Malta", Ranges: []Range{{"YL", "YR"}}},
			{Name: "Sweden", Ranges: []Range{{"YS", "YW"}}},
			{Name: "Norway", Ranges: []Range{{"YX", "Y2"}}},
			{Name: "Belarus", Ranges: []Range{{"Y3", "Y5"}}},
			{Name: "Ukraine", Ranges: []Range{{"Y6", "Y0"}}},
			{Name: "Italy", Ranges: []Range{{"ZA", "ZR"}}},
			{Name: "Slovenia", Ranges: []Range{{"ZX", "Z2"}}},
			{Name: "Lithuania", Ranges: []Range{{"Z3", "Z5"}}},
		},
	},
	{
		Name:  "North America",
		Codes: "12345",
		Countries: []Country{
			{Name: "United States", Ranges: []Range{{"1A", "10"}, {"4A", "40"}, {"5A", "50"}}},
			{Name: "Canada", Ranges: []Range{{"2A", "20"}}},
			{Name: "Mexico", Ranges: []Range{{"3A", "3W"}}},
			{Name: "Costa Rica", Ranges: []Range{{"3X", "37"}}},
			{Name: "Cayman Islands", Ranges: []Range{{"38", "30"}}},
		},
	},
	{
		Name:  "Oceania",
		Codes: "67",
		Countries: []Country{
			{Name: "Australia", Ranges: []Range{{"6A", "6W"}}},
			{Name: "New Zealand", Ranges: []Range{{"7A", "7E"}}},
		},
	},
	{
		Name:  "South America",
		Codes: "890",
		Countries: []Country{
			{Name: "Argentina", Ranges: []Range{{"8A", "8E"}}},
			{Name: "Chile", Ranges: []Range{{"8F", "8K"}}},
			{Name: "Ecuador", Ranges: []Range{{"8L", "8R"}}},
			{Name: "Peru", Ranges: []Range{{"8S", "8W"}}},
			{Name: "Venezuela", Ranges: []Range{{"8X", "82"}}},
			{Name: "Brazil", Ranges: []Range{{"9A", "9E"}, {"93", "99"}}},
			{Name: "Colombia", Ranges: []Range{{"9F", "9K"}}},
			{Name: "Paraguay", Ranges: []Range{{"9L", "9R"}}},
			{Name: "Uruguay", Ranges: []Range{{"9S", "9W"}}},
			{Name: "Trinidad and Tobago", Ranges: []Range{{"9X", "92"}}},
		},
	},
}

var manufacturers = map[string]string{
	// North America
	"1C3": "Chrysler",
	"1C4": "Chrysler",
	"1C6": "Ram",
	"1FA": "Ford",
	"1FM": "Ford",
	"1FT": "Ford",
	"1G1": "Chevrolet",
	"1GC": "Chevrolet",
	"1GT": "GMC",
	"1G6": "Cadillac",
	"1HG": "Honda",
	"1J4": "Jeep",
	"1LN": "Lincoln",
	"1M8": "Motor Coach Industries",
	"1N4": "Nissan",
	"1VW": "Volkswagen",
	"2G1": "Chevrolet",
	"2HG": "Honda",
	"2T1": "Toyota",
	"3FA": "Ford",
	"3VW": "Volkswagen",
	"4T1": "Toyota",
	"4S3": "Subaru",
	"5FN": "Honda",
	"5NP": "Hyundai",
	"5YJ": "Tesla",
	// Asia
	"JF1": "Subaru",
	"JHM": "Honda",
	"JM1": "Mazda",
	"JN1": "Nissan",
	"JT2": "Toyota",
	"JTD": "Toyota",
	"JTH": "Lexus",
	"KMH": "Hyundai",
	"KNA": "Kia",
	"KND": "Kia",
	"LRW": "Tesla",
	// Europe
	"SAJ": "Jaguar",
	"SAL": "Land Rover",
	"SCC": "Lotus",
	"TRU": "Audi",
	"VF1": "Renault",
	"VF3": "Peugeot",
	"VF7": "Citroën",
	"WAU": "Audi",
	"WBA": "BMW",
	"WBS": "BMW M",
	"WDB": "Mercedes-Benz",
	"WDD": "Mercedes-Benz",
	"WP0": "Porsche",
	"WVW": "Volkswagen",
	"WV2": "Volkswagen Commercial Vehicles",
	"YV1": "Volvo",
	"ZAR": "Alfa Romeo",
	"ZFA": "Fiat",
	"ZFF": "Ferrari",
	// Oceania / South America
	"6G1": "Holden",
	"9BW": "Volkswagen",
}
