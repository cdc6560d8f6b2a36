package mapping

// RegionTable converts FIPS 10-4 subdivision codes into ISO 3166-2 codes,
// scoped per country: a region code is only meaningful together with its
// ISO 3166-1 alpha-2 country.
//
// Matomo's GeoIP data historically carried FIPS codes while Umami expects
// ISO subdivisions. US and CA already arrive as ISO codes and are therefore
// not listed. The per-country maps are hand-curated and intentionally
// incomplete (RU covers only the most common subdivisions); unknown pairs
// pass the original code through unchanged so missing entries degrade to the
// source value instead of failing.
type RegionTable map[string]map[string]string

// Convert maps (country, region) to the ISO 3166-2 subdivision code, or
// returns region unchanged when either the country or the region within a
// known country has no mapping.
func (t RegionTable) Convert(country, region string) string {
	if iso, ok := t[country][region]; ok {
		return iso
	}
	return region
}

// Regions is the default FIPS-to-ISO table.
var Regions = RegionTable{
	// France: pre-2016 regions mapped onto the 13 merged post-reform regions.
	"FR": {
		"97": "NAQ", // Aquitaine -> Nouvelle-Aquitaine
		"98": "ARA", // Auvergne -> Auvergne-Rhone-Alpes
		"99": "NOR", // Basse-Normandie -> Normandie
		"A1": "BFC", // Bourgogne -> Bourgogne-Franche-Comte
		"A2": "BRE", // Bretagne
		"A3": "CVL", // Centre -> Centre-Val de Loire
		"A4": "GES", // Champagne-Ardenne -> Grand Est
		"A5": "20R", // Corse
		"A6": "BFC", // Franche-Comte -> Bourgogne-Franche-Comte
		"A7": "NOR", // Haute-Normandie -> Normandie
		"A8": "IDF", // Ile-de-France
		"A9": "OCC", // Languedoc-Roussillon -> Occitanie
		"B1": "NAQ", // Limousin -> Nouvelle-Aquitaine
		"B2": "GES", // Lorraine -> Grand Est
		"B3": "OCC", // Midi-Pyrenees -> Occitanie
		"B4": "HDF", // Nord-Pas-de-Calais -> Hauts-de-France
		"B5": "PDL", // Pays de la Loire
		"B6": "HDF", // Picardie -> Hauts-de-France
		"B7": "NAQ", // Poitou-Charentes -> Nouvelle-Aquitaine
		"B8": "PAC", // Provence-Alpes-Cote d'Azur
		"B9": "ARA", // Rhone-Alpes -> Auvergne-Rhone-Alpes
		"C1": "GES", // Alsace -> Grand Est
	},
	"CN": {
		"01": "AH", // Anhui
		"02": "ZJ", // Zhejiang
		"03": "JX", // Jiangxi
		"04": "JS", // Jiangsu
		"05": "JL", // Jilin
		"06": "QH", // Qinghai
		"07": "FJ", // Fujian
		"08": "HL", // Heilongjiang
		"09": "HA", // Henan
		"10": "HE", // Hebei
		"11": "HN", // Hunan
		"12": "HB", // Hubei
		"13": "XJ", // Xinjiang
		"14": "XZ", // Xizang (Tibet)
		"15": "GS", // Gansu
		"16": "GX", // Guangxi
		"18": "GZ", // Guizhou
		"19": "LN", // Liaoning
		"20": "NM", // Nei Mongol
		"21": "NX", // Ningxia
		"22": "BJ", // Beijing
		"23": "SH", // Shanghai
		"24": "SX", // Shanxi
		"25": "SD", // Shandong
		"26": "SN", // Shaanxi
		"28": "TJ", // Tianjin
		"29": "YN", // Yunnan
		"30": "GD", // Guangdong
		"31": "HI", // Hainan
		"32": "SC", // Sichuan
		"33": "CQ", // Chongqing
	},
	"DE": {
		"01": "BW", // Baden-Wuerttemberg
		"02": "BY", // Bayern
		"03": "HB", // Bremen
		"04": "HH", // Hamburg
		"05": "HE", // Hessen
		"06": "NI", // Niedersachsen
		"07": "NW", // Nordrhein-Westfalen
		"08": "RP", // Rheinland-Pfalz
		"09": "SL", // Saarland
		"10": "SH", // Schleswig-Holstein
		"11": "BB", // Brandenburg
		"12": "MV", // Mecklenburg-Vorpommern
		"13": "SN", // Sachsen
		"14": "ST", // Sachsen-Anhalt
		"15": "TH", // Thueringen
		"16": "BE", // Berlin
	},
	// Russia: partial, most common regions only.
	"RU": {
		"48": "MOW", // Moscow City
		"66": "SPE", // Saint Petersburg
		"47": "MOS", // Moscow Oblast
	},
	"ES": {
		"51": "AN", // Andalucia
		"52": "AR", // Aragon
		"53": "AS", // Asturias
		"54": "IB", // Islas Baleares
		"55": "PV", // Pais Vasco
		"56": "CN", // Canarias
		"57": "CB", // Cantabria
		"58": "CL", // Castilla y Leon
		"59": "CM", // Castilla-La Mancha
		"60": "CT", // Cataluna
		"61": "EX", // Extremadura
		"62": "GA", // Galicia
		"63": "MD", // Madrid
		"64": "MC", // Murcia
		"65": "NC", // Navarra
		"66": "RI", // La Rioja
		"67": "VC", // Valencia
	},
	"IT": {
		"01": "65", // Abruzzo
		"02": "77", // Basilicata
		"03": "78", // Calabria
		"04": "72", // Campania
		"05": "45", // Emilia-Romagna
		"06": "36", // Friuli Venezia Giulia
		"07": "62", // Lazio
		"08": "42", // Liguria
		"09": "25", // Lombardia
		"10": "57", // Marche
		"11": "67", // Molise
		"12": "21", // Piemonte
		"13": "75", // Puglia
		"14": "88", // Sardegna
		"15": "82", // Sicilia
		"16": "52", // Toscana
		"17": "32", // Trentino-Alto Adige
		"18": "55", // Umbria
		"19": "23", // Valle d'Aosta
		"20": "34", // Veneto
	},
	"BE": {
		"01": "VAN", // Antwerpen
		"03": "BRU", // Brussels
		"04": "WHT", // Hainaut
		"05": "WLG", // Liege
		"06": "VLI", // Limburg
		"07": "WLX", // Luxembourg
		"08": "WNA", // Namur
		"09": "VOV", // Oost-Vlaanderen
		"10": "VBR", // Vlaams-Brabant
		"11": "VWV", // West-Vlaanderen
		"12": "WBR", // Brabant wallon
	},
	"NL": {
		"01": "DR", // Drenthe
		"02": "FL", // Flevoland
		"03": "FR", // Friesland
		"04": "GE", // Gelderland
		"05": "GR", // Groningen
		"06": "LI", // Limburg
		"07": "NB", // Noord-Brabant
		"09": "NH", // Noord-Holland
		"10": "OV", // Overijssel
		"11": "UT", // Utrecht
		"13": "ZE", // Zeeland
		"14": "ZH", // Zuid-Holland
	},
	"CH": {
		"01": "AG", // Aargau
		"02": "AI", // Appenzell Innerrhoden
		"03": "AR", // Appenzell Ausserrhoden
		"04": "BE", // Bern
		"05": "BL", // Basel-Landschaft
		"06": "BS", // Basel-Stadt
		"07": "FR", // Fribourg
		"08": "GE", // Geneve
		"09": "GL", // Glarus
		"10": "GR", // Graubuenden
		"11": "JU", // Jura
		"12": "LU", // Luzern
		"13": "NE", // Neuchatel
		"14": "NW", // Nidwalden
		"15": "OW", // Obwalden
		"16": "SG", // Sankt Gallen
		"17": "SH", // Schaffhausen
		"18": "SO", // Solothurn
		"19": "SZ", // Schwyz
		"20": "TG", // Thurgau
		"21": "TI", // Ticino
		"22": "UR", // Uri
		"23": "VD", // Vaud
		"24": "VS", // Valais
		"25": "ZG", // Zug
		"26": "ZH", // Zuerich
	},
}
