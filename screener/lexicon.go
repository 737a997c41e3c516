package screener

// crisisPhrases are matched as substrings of the normalized text, so
// "suicid" covers suicide, suicidal and so on.
var crisisPhrases = []string{
	"suicid",
	"kill myself",
	"killing myself",
	"want to die",
	"wanna die",
	"self-harm",
	"self harm",
	"selfharm",
	"unalive",
	"end it all",
	"end my life",
	"overdose",
	"hurting myself",
	"cutting myself",
	"burning myself",
	"better off dead",
	"no reason to live",
}

// profanityWords are stems: a token containing one is profane unless the
// containing part is listed in falsePositives.
var profanityWords = []string{
	"ass",
	"bastard",
	"bitch",
	"bollocks",
	"cock",
	"crap",
	"cunt",
	"damn",
	"dick",
	"douche",
	"fuck",
	"idiot",
	"moron",
	"piss",
	"prick",
	"pussy",
	"retard",
	"shit",
	"slut",
	"twat",
	"wanker",
	"whore",
	"wtf",
}

// falsePositives are stripped from a token before profanityWords are looked up.
var falsePositives = []string{
	"assassin",
	"assembl",
	"assert",
	"assess",
	"asset",
	"assign",
	"assist",
	"associat",
	"assum",
	"assur",
	"babcock",
	"barrass",
	"bass",
	"brass",
	"cass",
	"class",
	"cockato",
	"cockle",
	"cockpit",
	"cockroach",
	"cocktail",
	"dicken",
	"dickins",
	"glass",
	"grass",
	"hancock",
	"harass",
	"hass",
	"hitchcock",
	"lass",
	"mass",
	"nass",
	"pass",
	"peacock",
	"prickl",
	"retardant",
	"sass",
	"scrap",
	"scunthorpe",
	"shitake",
	"shuttlecock",
	"tass",
	"woodcock",
}

// profanityPhrases catch spaced-out forms that token matching would miss.
var profanityPhrases = []string{
	"f u c k",
	"s h i t",
	"piece of shit",
	"son of a bitch",
}
