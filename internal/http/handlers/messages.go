package handlers

var messages = map[string]map[string]string{
	"bad_request": {
		"en": "The request is invalid.",
		"my": "တောင်းဆိုချက် မမှန်ကန်ပါ။",
	},
	"topic_required": {
		"en": "Please enter a campaign topic.",
		"my": "ခေါင်းစဉ် ထည့်သွင်းရန် လိုအပ်ပါသည်။",
	},
	"api_key_required": {
		"en": "Please enter your API key.",
		"my": "API key ထည့်သွင်းရန် လိုအပ်ပါသည်။",
	},
	"invalid_transition": {
		"en": "That action is not available on this step.",
		"my": "ဤလုပ်ဆောင်ချက်ကို ယခုအဆင့်တွင် ပြုလုပ်၍ မရပါ။",
	},
	"generation_failed": {
		"en": "Error generating image. Try again.",
		"my": "ပုံထုတ်ရာတွင် အမှားဖြစ်ပွားသည်။ ထပ်မံကြိုးစားပါ။",
	},
	"unsupported_upload": {
		"en": "Only PNG and JPG files are accepted.",
		"my": "PNG သို့မဟုတ် JPG ဖိုင်များသာ လက်ခံပါသည်။",
	},
	"invalid_color": {
		"en": "The color must be a hex value such as #FFFFFF.",
		"my": "အရောင်ကုဒ်ကို #FFFFFF ပုံစံဖြင့် ထည့်ပါ။",
	},
	"not_found": {
		"en": "Not found.",
		"my": "ရှာမတွေ့ပါ။",
	},
	"internal": {
		"en": "Something went wrong on our side.",
		"my": "စနစ်အတွင်း အမှားဖြစ်ပွားသည်။",
	},
}

func message(locale, code string) string {
	m, ok := messages[code]
	if !ok {
		m = messages["internal"]
	}
	if s, ok := m[locale]; ok {
		return s
	}
	return m["en"]
}
