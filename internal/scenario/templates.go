package scenario

import (
	"fmt"

	"github.com/kiliankoe/faceoff/internal/game"
)

// Templates substitute %[1]s (role A) and %[2]s (role B). They are the
// availability backstop for game start, so the table must cover at least
// MaxRounds entries per theme by cycling.
type template struct {
	Prompt    string
	OptionA   string
	OptionB   string
	Intensity float64
}

var templates = map[string][]template{
	"classic": {
		{
			Prompt:    "It's 3am and the baby monitor goes off. Who pretends to be asleep?",
			OptionA:   "%[1]s has mastered the fake snore",
			OptionB:   "%[2]s suddenly can't hear a thing",
			Intensity: 0.3,
		},
		{
			Prompt:    "Who would secretly finish the kids' birthday cake the night before the party?",
			OptionA:   "%[1]s, citing quality control",
			OptionB:   "%[2]s, leaving exactly one slice as an alibi",
			Intensity: 0.4,
		},
		{
			Prompt:    "The car makes a weird noise. Who turns the radio up instead of calling the garage?",
			OptionA:   "%[1]s, the noise will sort itself out",
			OptionB:   "%[2]s, that's what the volume knob is for",
			Intensity: 0.3,
		},
		{
			Prompt:    "Who still brags about a sports achievement from more than a decade ago?",
			OptionA:   "%[1]s, the legend grows every year",
			OptionB:   "%[2]s, there is video evidence somewhere",
			Intensity: 0.5,
		},
		{
			Prompt:    "Family board game night ends in an argument. Who flipped the board?",
			OptionA:   "%[1]s never loses gracefully",
			OptionB:   "%[2]s invented a house rule mid-game",
			Intensity: 0.6,
		},
		{
			Prompt:    "Who would text the family group chat from the same room instead of speaking?",
			OptionA:   "%[1]s, with emojis",
			OptionB:   "%[2]s, in all caps",
			Intensity: 0.3,
		},
		{
			Prompt:    "A spider appears in the bathroom. Who screams and who gets the glass?",
			OptionA:   "%[1]s is already standing on the toilet",
			OptionB:   "%[2]s filed a noise complaint about the scream",
			Intensity: 0.4,
		},
		{
			Prompt:    "Who would get lost on a road trip and refuse to admit it for an hour?",
			OptionA:   "%[1]s calls it a scenic route",
			OptionB:   "%[2]s argues with the GPS out loud",
			Intensity: 0.5,
		},
		{
			Prompt:    "The WiFi goes down. Who turns the router off and on twelve times in a row?",
			OptionA:   "%[1]s, tech support of the house",
			OptionB:   "%[2]s, while blaming the neighbors",
			Intensity: 0.3,
		},
		{
			Prompt:    "Who would sneak fast food on the way home from the gym?",
			OptionA:   "%[1]s, it's called balance",
			OptionB:   "%[2]s keeps the receipts in the glovebox",
			Intensity: 0.5,
		},
	},
	"chaos": {
		{
			Prompt:    "Who would accidentally start a small kitchen fire making toast?",
			OptionA:   "%[1]s, again",
			OptionB:   "%[2]s, and blame the toaster",
			Intensity: 0.7,
		},
		{
			Prompt:    "Who would adopt a stray animal without telling anyone until it's too late?",
			OptionA:   "%[1]s, the dog already has a name",
			OptionB:   "%[2]s, there are three now",
			Intensity: 0.6,
		},
		{
			Prompt:    "Karaoke night. Who grabs the mic for a second, unrequested encore?",
			OptionA:   "%[1]s, key optional",
			OptionB:   "%[2]s, choreography included",
			Intensity: 0.8,
		},
		{
			Prompt:    "Who would bet the grocery money on a 'sure thing'?",
			OptionA:   "%[1]s has a system",
			OptionB:   "%[2]s knows a guy",
			Intensity: 0.9,
		},
		{
			Prompt:    "Who would get into an argument with a self-checkout machine and lose?",
			OptionA:   "%[1]s, unexpected item in the bagging area",
			OptionB:   "%[2]s, security was called",
			Intensity: 0.7,
		},
		{
			Prompt:    "Who starts a DIY project that leaves a hole in the wall for six months?",
			OptionA:   "%[1]s, the vision is long-term",
			OptionB:   "%[2]s hung a picture over it",
			Intensity: 0.6,
		},
	},
	"cozy": {
		{
			Prompt:    "Who falls asleep fifteen minutes into every movie night?",
			OptionA:   "%[1]s, but denies it in the morning",
			OptionB:   "%[2]s, mid-sentence",
			Intensity: 0.2,
		},
		{
			Prompt:    "Who hoards the good blanket and claims it's community property?",
			OptionA:   "%[1]s, the blanket chose them",
			OptionB:   "%[2]s, possession is nine tenths",
			Intensity: 0.2,
		},
		{
			Prompt:    "Who cries first at a wedding, any wedding, including on TV?",
			OptionA:   "%[1]s brought tissues just in case",
			OptionB:   "%[2]s 'just has something in their eye'",
			Intensity: 0.3,
		},
		{
			Prompt:    "Who reads one page of a book and calls it a reading evening?",
			OptionA:   "%[1]s, the bookmark hasn't moved since spring",
			OptionB:   "%[2]s, audiobooks count double",
			Intensity: 0.2,
		},
		{
			Prompt:    "Whose 'five more minutes' in bed is a documented forty-five?",
			OptionA:   "%[1]s, with snooze-button calluses",
			OptionB:   "%[2]s, alarm number four is the real one",
			Intensity: 0.3,
		},
	},
}

func templateFor(theme string, round int) template {
	tpls, ok := templates[theme]
	if !ok {
		tpls = templates["classic"]
	}
	return tpls[(round-1)%len(tpls)]
}

var roastLines = []string{
	"%s takes this one. The room has spoken, loudly.",
	"Not even close: %s, this is your moment, for better or worse.",
	"The jury didn't need long. %s, any final words?",
	"%s wins the round. The defense rests, the prosecution celebrates.",
	"A landslide for %s. Someone frame this result.",
}

var tieLines = []string{
	"Dead even. %s and %s can split the blame like adults.",
	"A perfect tie. %s and %s, equally guilty, no appeals.",
}

func fallbackRoast(roleA, roleB string, res *game.RoundResult) string {
	if res.CountA == res.CountB {
		return fmt.Sprintf(tieLines[res.Round%len(tieLines)], roleA, roleB)
	}
	winner := roleA
	if res.CountB > res.CountA {
		winner = roleB
	}
	return fmt.Sprintf(roastLines[res.Round%len(roastLines)], winner)
}
