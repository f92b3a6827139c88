package extract

import (
	"regexp"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// AffectionKind says how a matched number is applied.
type AffectionKind int

const (
	// Relative patterns carry a signed change.
	Relative AffectionKind = iota
	// Absolute patterns carry the new value.
	Absolute
)

// AffectionPattern is one row of the affection table. Value is the capture
// group holding the number.
type AffectionPattern struct {
	Name  string
	Re    *regexp.Regexp
	Kind  AffectionKind
	Sign  int
	Value int
}

// AffectionPatterns are tried in order; the first match wins.
var AffectionPatterns = []AffectionPattern{
	{Name: "zh-increase", Re: regexp.MustCompile(`好感度?(?:增加|提升|提高|上升|上涨|增长)了?\s*(\d+)\s*点?`), Kind: Relative, Sign: 1, Value: 1},
	{Name: "zh-decrease", Re: regexp.MustCompile(`好感度?(?:减少|降低|下降|下跌|减)了?\s*(\d+)\s*点?`), Kind: Relative, Sign: -1, Value: 1},
	{Name: "zh-absolute", Re: regexp.MustCompile(`好感度?(?:变为|变成|达到|到了|为|是)了?\s*(\d+)`), Kind: Absolute, Value: 1},
	{Name: "en-increase", Re: regexp.MustCompile(`(?i)affection\s+(?:increased|increases|rose|rises|went up|grew|goes up)\s+by\s+(\d+)`), Kind: Relative, Sign: 1, Value: 1},
	{Name: "en-decrease", Re: regexp.MustCompile(`(?i)affection\s+(?:decreased|decreases|dropped|drops|fell|falls|went down|goes down)\s+by\s+(\d+)`), Kind: Relative, Sign: -1, Value: 1},
	{Name: "en-plus", Re: regexp.MustCompile(`(?i)affection\s*\+\s*(\d+)`), Kind: Relative, Sign: 1, Value: 1},
	{Name: "en-minus", Re: regexp.MustCompile(`(?i)affection\s*-\s*(\d+)`), Kind: Relative, Sign: -1, Value: 1},
	{Name: "en-absolute", Re: regexp.MustCompile(`(?i)affection\s+(?:is now|is|became|becomes|reached|reaches|set to|now at)\s+(\d+)`), Kind: Absolute, Value: 1},
}

// EmotionKeywords lists keywords per emotion. ASCII keywords match at a
// word start; CJK keywords match anywhere.
var EmotionKeywords = map[types.Emotion][]string{
	types.EmotionNeutral:   {"平静", "淡定", "冷静", "calm", "neutral", "composed"},
	types.EmotionHappy:     {"开心", "高兴", "快乐", "愉快", "微笑", "笑了", "happy", "glad", "smile", "joy", "cheerful"},
	types.EmotionSad:       {"难过", "伤心", "悲伤", "哭", "失落", "sad", "cry", "cried", "tears", "sorrow"},
	types.EmotionAngry:     {"生气", "愤怒", "恼火", "发火", "angry", "furious", "annoyed", "rage"},
	types.EmotionSurprised: {"惊讶", "吃惊", "震惊", "意外", "surprised", "shocked", "astonished"},
	types.EmotionFearful:   {"害怕", "恐惧", "惊恐", "胆怯", "afraid", "scared", "fear", "terrified"},
	types.EmotionDisgusted: {"厌恶", "恶心", "嫌弃", "disgust", "gross", "repulsed"},
	types.EmotionShy:       {"害羞", "脸红", "羞涩", "不好意思", "shy", "blush"},
	types.EmotionExcited:   {"兴奋", "激动", "期待", "excited", "thrilled", "eager"},
	types.EmotionAnxious:   {"焦虑", "紧张", "不安", "担心", "anxious", "nervous", "worried"},
}

// MovementKeywords are scanned in order; the first one present starts the
// location capture. Longer forms come before their prefixes.
var MovementKeywords = []string{
	"走进了", "走进", "来到了", "来到", "进入了", "进入", "前往", "到达了", "到达", "回到了", "回到",
	"went to", "arrived at", "moved to", "entered", "headed to", "walked into",
}

// Location capture bounds in runes.
const (
	MinLocationRunes = 2
	MaxLocationRunes = 10
)

// Numeral group and classifier shared by the inventory patterns.
const (
	qtyGroup     = `([0-9]+|[一二两三四五六七八九十]|one|two|three|four|five|six|seven|eight|nine|ten|an|a)?`
	classifier   = `(?:个|把|件|瓶|块|枚|张|本|颗|支|份|套|只|袋|串)?`
	zhItemGroup  = `([^\s\p{P}\p{S}0-9和与及跟并了的呢吧啊]{1,6})`
	enItemGroup  = `(?:(?:the|some|your|his|her|their)\s+)?([a-z]+)`
	enQtyPattern = `(?:(\d+|one|two|three|four|five|six|seven|eight|nine|ten|an|a)\s+)?`
)

// Inventory actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// InventoryPattern is one row of the inventory tables.
type InventoryPattern struct {
	Name     string
	Re       *regexp.Regexp
	Quantity int
	Item     int
}

// InventoryAddPatterns detect items gained.
var InventoryAddPatterns = []InventoryPattern{
	{Name: "zh-given", Re: regexp.MustCompile(`给了?[你我]\s*` + qtyGroup + `\s*` + classifier + `\s*` + zhItemGroup), Quantity: 1, Item: 2},
	{Name: "zh-obtained", Re: regexp.MustCompile(`(?:获得|得到|收到|捡到|买了|拿到)了?\s*` + qtyGroup + `\s*` + classifier + `\s*` + zhItemGroup), Quantity: 1, Item: 2},
	{Name: "en-obtained", Re: regexp.MustCompile(`(?i)\b(?:gave you|gives you|received|obtained|picked up|found|got|bought)\s+` + enQtyPattern + enItemGroup), Quantity: 1, Item: 2},
}

// InventoryRemovePatterns detect items lost.
var InventoryRemovePatterns = []InventoryPattern{
	{Name: "zh-lost", Re: regexp.MustCompile(`(?:失去|丢了|丢失|用掉|吃掉|消耗|交出|卖掉|送出)了?\s*` + qtyGroup + `\s*` + classifier + `\s*` + zhItemGroup), Quantity: 1, Item: 2},
	{Name: "en-lost", Re: regexp.MustCompile(`(?i)\b(?:lost|dropped|used up|used|ate|consumed|sold|gave away)\s+` + enQtyPattern + enItemGroup), Quantity: 1, Item: 2},
}

// numerals maps number words to values.
var numerals = map[string]int{
	"一": 1, "二": 2, "两": 2, "三": 3, "四": 4, "五": 5, "六": 6, "七": 7, "八": 8, "九": 9, "十": 10,
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"a": 1, "an": 1,
}

// EventKeyword maps a keyword to an event type and importance tier.
type EventKeyword struct {
	Keyword    string
	Type       string
	Importance int
}

// DefaultEventType is used when no keyword matches.
const DefaultEventType = "conversation"

// EventKeywords is the tier table, highest tier first. The highest matching
// importance wins; ties go to the earlier row.
var EventKeywords = []EventKeyword{
	{"死亡", "death", 5}, {"去世", "death", 5}, {"牺牲", "death", 5}, {"died", "death", 5}, {"killed", "death", 5},
	{"结婚", "marriage", 5}, {"married", "marriage", 5},
	{"背叛", "betrayal", 5}, {"betrayed", "betrayal", 5},
	{"告白", "confession", 4}, {"表白", "confession", 4}, {"confessed", "confession", 4},
	{"分手", "breakup", 4}, {"broke up", "breakup", 4},
	{"战斗", "battle", 4}, {"fought", "battle", 4}, {"battle", "battle", 4},
	{"受伤", "injury", 4}, {"injured", "injury", 4}, {"wounded", "injury", 4},
	{"重逢", "reunion", 4}, {"reunited", "reunion", 4},
	{"约会", "date", 3}, {"date", "date", 3},
	{"秘密", "secret", 3}, {"secret", "secret", 3},
	{"承诺", "promise", 3}, {"promised", "promise", 3}, {"promise", "promise", 3},
	{"礼物", "gift", 3}, {"gift", "gift", 3}, {"present", "gift", 3},
	{"生日", "birthday", 3}, {"birthday", "birthday", 3},
	{"见面", "meeting", 2}, {"遇到", "meeting", 2}, {"相遇", "meeting", 2}, {"met", "meeting", 2}, {"encountered", "meeting", 2},
	{"拜访", "visit", 2}, {"visited", "visit", 2},
	{"聊天", "chat", 2}, {"talked", "chat", 2}, {"chatted", "chat", 2},
}

// Participant patterns. Paired names come first; lone names are only taken
// before a colon or a speech/action verb.
var (
	pairedNamesRe = regexp.MustCompile(`(?:^|[\s\p{P}])([A-Z][a-z]+|\p{Han}{2,3})\s*(?:和|与|跟|and|&)\s*([A-Z][a-z]+|\p{Han}{2,3})(?:[\s\p{P}]|$)`)
	loneNameRe    = regexp.MustCompile(`(?:^|[\s\p{P}])([A-Z][a-z]+|\p{Han}{2,3})\s*(?:[:：]|说|问|笑|走|来到|去|给|看|said|says|asked|told|smiled|walked|went|gave|looked|met)`)
)

// nameStopwords are name-shaped words that are never participants.
var nameStopwords = map[string]bool{
	"The": true, "She": true, "He": true, "They": true, "It": true, "You": true, "We": true,
	"This": true, "That": true, "Then": true, "Her": true, "His": true, "There": true, "Affection": true,
	"我们": true, "你们": true, "他们": true, "她们": true, "然后": true, "今天": true, "大家": true,
}

// MaxDescriptionRunes bounds the event description copied from the text.
const MaxDescriptionRunes = 200
