package nodes

import (
	"time"

	"garden_buddy/internal/conversation"
	"garden_buddy/internal/style"
)

// Template categories
const (
	CategoryWater   = "water"
	CategorySun     = "sun"
	CategorySoil    = "soil"
	CategoryPest    = "pest"
	CategoryHarvest = "harvest"
	CategoryDefault = "default"
)

var templateLibrary = map[string][]string{
	CategoryWater: {
		"💧 Watering is an art! It depends on your soil and plants. How often are you currently watering?",
		"🚿 Deep watering less often beats frequent shallow watering! How's your routine?",
		"💧 The finger test works great - stick your finger 2 inches in. Dry? Time to water!",
		"🌧️ If it rained recently, your plants might be good! Check the soil first.",
		"💧 Consistency is key. Morning watering is best - less evaporation!",
	},
	CategorySun: {
		"☀️ Sunlight is pure plant energy! Most veggies need 6-8 hours. Know your sun spots?",
		"🌞 Full sun, partial shade, or somewhere in between?",
		"☀️ Watch your garden through the day - shadows move more than you'd think!",
		"🌤️ Even leafy greens love some sun, though they tolerate shade better than fruiting plants.",
	},
	CategorySoil: {
		"🌱 Healthy soil = happy plants! Ever added compost?",
		"🪱 Good soil is alive! Got worms? That's a great sign!",
		"🌱 Sandy or clay-heavy? Each has pros and cons.",
		"🍂 Mulch is magic for moisture retention!",
	},
	CategoryPest: {
		"🐛 Pests happen! Holes in leaves, sticky residue, or visible bugs?",
		"🐜 Let's ID them first. Aphids? Slugs? Something else?",
		"🐌 Describe what you're seeing and we'll tackle it together!",
		"🐞 Remember, not all bugs are bad! Ladybugs and bees are garden heroes.",
	},
	CategoryHarvest: {
		"🌾 Harvest time is the best reward! When did you plant?",
		"🧺 Getting close? Look for the signs - color, size, firmness!",
		"🥕 From garden to plate! What's almost ready?",
		"🍅 Homegrown flavor is unbeatable!",
	},
	CategoryDefault: {
		"🌱 I'm listening! What's on your mind?",
		"🌿 Tell me more about what's happening in your garden.",
		"🍃 I'm learning so much! What else?",
		"🌼 Your garden sounds interesting! Keep going.",
	},
}

// acknowledgements[mood][casual|formal]
var acknowledgements = map[string]map[string][]string{
	conversation.MoodExcited: {
		style.FormalityCasual: {"That's awesome! 🎉", "Yes! Love it! ✨", "You're crushing it! 💪", "Garden goals! 🏆"},
		style.FormalityFormal: {"That is excellent! 🎉", "Wonderful! ✨", "You are doing remarkably well! 💪", "Outstanding progress! 🏆"},
	},
	conversation.MoodConcerned: {
		style.FormalityCasual: {"I hear you, let's fix this 🤝", "Don't worry, we got this 💚", "I'm here to help! 🌱"},
		style.FormalityFormal: {"I understand. Let us resolve this together 🤝", "Please do not worry. We shall address this 💚", "I am here to assist you 🌱"},
	},
	conversation.MoodCurious: {
		style.FormalityCasual: {"Great question! 💡", "Ooh, good one! 🤔", "Love that you're asking! 📚"},
		style.FormalityFormal: {"Excellent question! 💡", "That is a very good inquiry! 🤔", "I appreciate your curiosity! 📚"},
	},
	conversation.MoodNeutral: {
		style.FormalityCasual: {"Got it! 👍", "Perfect! ✓", "Cool, noted! 📝"},
		style.FormalityFormal: {"Understood! 👍", "Very well! ✓", "Noted! 📝"},
	},
}

var chattyAddons = map[string][]string{
	style.FormalityCasual: {
		"\n\nGardening's all about patience!",
		"\n\nLoving your garden journey!",
		"\n\nYour plants are lucky!",
		"\n\nKeep up the awesome work!",
	},
	style.FormalityFormal: {
		"\n\nGardening requires patience and care.",
		"\n\nI appreciate learning about your garden.",
		"\n\nYour attention to detail is commendable.",
		"\n\nContinue with your excellent work.",
	},
}

var seasonalTips = map[string][]string{
	"winter": {"Planning is key in winter!", "Great time to prep beds!", "Seed catalogs are your friend!"},
	"spring": {"Prime planting season!", "Watch for late frosts!", "Time to get growing!"},
	"summer": {"Keep watering consistent!", "Harvest season is here!", "Watch for pests in the heat!"},
	"autumn": {"Great for cool-season crops!", "Time to mulch!", "Harvest and preserve!"},
}

func season(m time.Month) string {
	switch m {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "autumn"
	}
}

// Fixed replies
const (
	followUpLayout = "By the way, are you growing in raised beds, containers, or in the ground?"
	followUpSun    = "Quick question - how much sunlight does your garden get daily?"
	followUpSoil   = "What's your soil like? Clay-heavy, sandy, or pretty balanced?"

	coldStartReply = "🌱 Welcome! I'm here to help your garden thrive.\n\nTo give you better advice, I need to picture your garden. Are you growing in **raised beds**, **containers**, or directly in the **ground**?"

	welcomeBack = "\n\nWelcome back! Anything new in the garden since we last talked?"

	helpReply = "🌱 **Commands:**\n\n" +
		"/teach - Teach me something\n" +
		"/gist add - Save a note\n" +
		"/wrong - Correct me\n" +
		"/why - Explain reasoning\n" +
		"/stats - Garden stats\n" +
		"/export - Export data\n" +
		"/diagnose - Diagnose a problem\n" +
		"/plant add - Track a plant\n" +
		"/calendar - Plan garden tasks\n" +
		"/weather - Local forecast\n" +
		"/settings - Location and API keys\n" +
		"/clear - Forget everything\n\n" +
		"Or just chat naturally!"

	unknownCommandReply = "🤔 I don't know that command. Try /help to see what I can do."

	guestExportReply = "⚠️ **Guest Limitation**\n\nExporting requires a free account to protect your data."

	plantLimitReply = "🌱 **Plant Limit Reached**\n\nFree accounts can track up to %d plants. Upgrade to Pro for unlimited plants!"

	weatherKeyReply = "Set your OpenWeatherMap API key with /settings weather-key [key] to get weather updates!"
)
