package speech

// Every fixed spoken or printed phrase lives here. The speaker talks to a
// Chinese-speaking household; keep the lines in the language the device
// answers in.

// LineStartup is printed when the relay starts.
func LineStartup() string {
	return "正在运行 minarelay, 请用\"开启/关闭高级对话模式\"控制对话模式。"
}

// LineInterrupt is spoken before dispatching a query to the chat backend,
// so the user knows the speaker's own answer is being cut off.
func LineInterrupt() string {
	return "中断小爱转GPT回答"
}

// LineAdvancedOn announces that queries will be forwarded again.
func LineAdvancedOn() string {
	return "高级对话模式已开启"
}

// LineAdvancedOff announces that the speaker is back on its own.
func LineAdvancedOff() string {
	return "高级对话模式已关闭"
}

// LineSpeakerAnswer labels the speaker's own answer on the console.
func LineSpeakerAnswer(answer string) string {
	return "以下是小爱的回答: " + answer
}

// LineSpeakerSilent is printed when the speaker gave no answer of its own.
func LineSpeakerSilent() string {
	return "小爱没回"
}

// LineBotAnswer labels the chat backend's reply on the console.
func LineBotAnswer() string {
	return "以下是GPT的回答: "
}
