package lang

// Names maps model language codes to display names. The table mirrors the
// languages the ai4bharat/indic-seamless checkpoint was trained to emit.
var Names = map[string]string{
	"afr":      "Afrikaans",
	"amh":      "Amharic",
	"arb":      "Modern Standard Arabic",
	"ary":      "Moroccan Arabic",
	"arz":      "Egyptian Arabic",
	"asm":      "Assamese",
	"azj":      "North Azerbaijani",
	"bel":      "Belarusian",
	"ben":      "Bengali",
	"bos":      "Bosnian",
	"bul":      "Bulgarian",
	"cat":      "Catalan",
	"ceb":      "Cebuano",
	"ces":      "Czech",
	"ckb":      "Central Kurdish",
	"cmn":      "Mandarin Chinese",
	"cmn_Hant": "Traditional Chinese",
	"cym":      "Welsh",
	"dan":      "Danish",
	"deu":      "German",
	"ell":      "Greek",
	"eng":      "English",
	"est":      "Estonian",
	"eus":      "Basque",
	"fin":      "Finnish",
	"fra":      "French",
	"fuv":      "Nigerian Fulfulde",
	"gaz":      "West Central Oromo",
	"gle":      "Irish",
	"glg":      "Galician",
	"guj":      "Gujarati",
	"heb":      "Hebrew",
	"hin":      "Hindi",
	"hrv":      "Croatian",
	"hun":      "Hungarian",
	"hye":      "Armenian",
	"ibo":      "Igbo",
	"ind":      "Indonesian",
	"isl":      "Icelandic",
	"ita":      "Italian",
	"jav":      "Javanese",
	"jpn":      "Japanese",
	"kan":      "Kannada",
	"kat":      "Georgian",
	"kaz":      "Kazakh",
	"khk":      "Halh Mongolian",
	"khm":      "Khmer",
	"kir":      "Kyrgyz",
	"kor":      "Korean",
	"lao":      "Lao",
	"lit":      "Lithuanian",
	"lug":      "Ganda",
	"luo":      "Luo",
	"lvs":      "Standard Latvian",
	"mai":      "Maithili",
	"mal":      "Malayalam",
	"mar":      "Marathi",
	"mkd":      "Macedonian",
	"mlt":      "Maltese",
	"mni":      "Manipuri",
	"mya":      "Burmese",
	"nld":      "Dutch",
	"nno":      "Norwegian Nynorsk",
	"nob":      "Norwegian Bokmål",
	"npi":      "Nepali",
	"nya":      "Nyanja",
	"ory":      "Odia",
	"pan":      "Punjabi",
	"pbt":      "Southern Pashto",
	"pes":      "Western Persian",
	"pol":      "Polish",
	"por":      "Portuguese",
	"ron":      "Romanian",
	"rus":      "Russian",
	"sat":      "Santali",
	"slk":      "Slovak",
	"slv":      "Slovenian",
	"sna":      "Shona",
	"snd":      "Sindhi",
	"som":      "Somali",
	"spa":      "Spanish",
	"srp":      "Serbian",
	"swe":      "Swedish",
	"swh":      "Swahili",
	"tam":      "Tamil",
	"tel":      "Telugu",
	"tgk":      "Tajik",
	"tgl":      "Tagalog",
	"tha":      "Thai",
	"tur":      "Turkish",
	"ukr":      "Ukrainian",
	"urd":      "Urdu",
	"uzn":      "Northern Uzbek",
	"vie":      "Vietnamese",
	"yor":      "Yoruba",
	"yue":      "Cantonese",
	"zlm":      "Colloquial Malay",
	"zul":      "Zulu",
}
