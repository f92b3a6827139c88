package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

type mockReader struct {
	characters map[string]*types.Character
	err        error
}

func (m *mockReader) GetCharacterState(ctx context.Context, id string) (*types.Character, error) {
	if m.err != nil {
		return nil, m.err
	}
	if c, ok := m.characters[id]; ok {
		return c, nil
	}
	return nil, types.ErrNotFound
}

func newTestExtractor() *Extractor {
	return New(&mockReader{characters: map[string]*types.Character{
		"alice": {ID: "alice", Name: "Alice", Affection: 50},
	}}, nil)
}

func TestExtractAffection(t *testing.T) {
	x := newTestExtractor()
	ctx := context.Background()

	tests := []struct {
		name      string
		text      string
		wantDelta int
		wantNew   int
		wantName  string
	}{
		{"zh increase", "好感度增加了10点", 10, 60, "zh-increase"},
		{"zh increase no particle", "好感提升5点", 5, 55, "zh-increase"},
		{"zh decrease", "她的好感度下降了15点", -15, 35, "zh-decrease"},
		{"zh absolute", "好感度变为80", 30, 80, "zh-absolute"},
		{"zh full width digits", "好感度增加了１０点", 10, 60, "zh-increase"},
		{"unclamped overflow", "好感度增加了200点", 200, 250, "zh-increase"},
		{"en increase", "Affection increased by 7.", 7, 57, "en-increase"},
		{"en decrease", "her affection dropped by 20", -20, 30, "en-decrease"},
		{"en plus", "affection +3", 3, 53, "en-plus"},
		{"en minus", "affection -4", -4, 46, "en-minus"},
		{"en absolute", "Affection is now 42", -8, 42, "en-absolute"},
		{"first pattern wins", "好感度增加了10点，然后好感度变为90", 10, 60, "zh-increase"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x.ExtractAffection(ctx, "alice", tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantDelta, got.Delta)
			assert.Equal(t, tt.wantNew, got.NewValue)
			assert.Equal(t, 50, got.Current)
			assert.Equal(t, tt.wantName, got.Pattern)
		})
	}
}

func TestExtractAffection_NoSignal(t *testing.T) {
	x := newTestExtractor()
	ctx := context.Background()

	for _, text := range []string{"", "今天天气很好", "She smiled warmly.", "好感度很高"} {
		for _, id := range []string{"alice", "nobody"} {
			assert.Nil(t, x.ExtractAffection(ctx, id, text), "text %q character %s", text, id)
		}
	}

	assert.Nil(t, x.ExtractAffection(ctx, "nobody", "好感度增加了10点"), "unknown character yields no signal")

	broken := New(&mockReader{err: errors.New("db down")}, nil)
	assert.Nil(t, broken.ExtractAffection(ctx, "alice", "好感度增加了10点"))

	assert.Nil(t, New(nil, nil).ExtractAffection(ctx, "alice", "好感度增加了10点"))
}

func TestExtractAffection_Idempotent(t *testing.T) {
	x := newTestExtractor()
	ctx := context.Background()
	first := x.ExtractAffection(ctx, "alice", "好感度增加了10点")
	second := x.ExtractAffection(ctx, "alice", "好感度增加了10点")
	assert.Equal(t, first, second)
}

func TestExtractEmotion(t *testing.T) {
	x := newTestExtractor()

	tests := []struct {
		name           string
		text           string
		wantEmotion    types.Emotion
		wantScore      int
		wantConfidence float64
	}{
		{"single keyword", "她很开心", types.EmotionHappy, 1, 1.0 / 3},
		{"english case insensitive", "She was SO Happy and glad", types.EmotionHappy, 2, 2.0 / 3},
		{"confidence capped", "伤心，难过，哭了，失落", types.EmotionSad, 4, 1},
		{"highest score wins", "他很生气，非常愤怒，但也有点害怕", types.EmotionAngry, 2, 2.0 / 3},
		{"tie goes to earlier emotion", "she was happy but sad", types.EmotionHappy, 1, 1.0 / 3},
		{"tie order is fixed", "害羞又紧张", types.EmotionShy, 1, 1.0 / 3},
		{"word start only", "the madness of a scarecrow", types.Emotion(""), 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x.ExtractEmotion(tt.text)
			if tt.wantScore == 0 {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantEmotion, got.Emotion)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
		})
	}
}

func TestExtractLocation(t *testing.T) {
	x := newTestExtractor()

	tests := []struct {
		name        string
		text        string
		wantName    string
		wantKeyword string
	}{
		{"zh walked into", "Alice 走进了图书馆", "图书馆", "走进了"},
		{"zh cut at punctuation", "我们来到了咖啡厅，点了咖啡", "咖啡厅", "来到了"},
		{"zh cut at space", "回到 宿舍 休息", "宿舍", "回到"},
		{"zh capped at ten runes", "前往一二三四五六七八九十十一", "一二三四五六七八九十", "前往"},
		{"en article stripped", "They went to the library.", "library", "went to"},
		{"en long name finishes word", "She arrived at Central Park!", "Central Park", "arrived at"},
		{"en cap inside word", "They went to the marketplace", "marketplace", "went to"},
		{"en cap keeps whole words", "He walked into the old library and sat down.", "old library", "walked into"},
		{"en cap between words", "She entered the great hall of kings", "great hall", "entered"},
		{"en case insensitive", "ENTERED the hall", "hall", "entered"},
		{"keyword order decides", "到达了车站，然后进入了大厅", "大厅", "进入了"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x.ExtractLocation(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantName, got.Name)
			assert.Equal(t, tt.wantKeyword, got.Keyword)
		})
	}

	assert.Nil(t, x.ExtractLocation("今天天气很好"))
	assert.Nil(t, x.ExtractLocation("来到。"), "span shorter than two runes is ignored")
}

func TestCaptureSpan(t *testing.T) {
	assert.Equal(t, "old inn", captureSpan(" the old inn"))
	assert.Equal(t, "old librarian", captureSpan("old librarian's room"))
	assert.Equal(t, "", captureSpan("x"))
}

func TestExtractInventory(t *testing.T) {
	x := newTestExtractor()

	tests := []struct {
		name string
		text string
		want []InventoryChange
	}{
		{"scenario gift", "Alice 给了你 3 个苹果", []InventoryChange{
			{Action: ActionAdd, ItemName: "苹果", Quantity: 3, Pattern: "zh-given"},
		}},
		{"zh numeral", "你获得了两把钥匙", []InventoryChange{
			{Action: ActionAdd, ItemName: "钥匙", Quantity: 2, Pattern: "zh-obtained"},
		}},
		{"zh default quantity", "你收到礼盒", []InventoryChange{
			{Action: ActionAdd, ItemName: "礼盒", Quantity: 1, Pattern: "zh-obtained"},
		}},
		{"zh stops at conjunction", "给了我一本书和笔", []InventoryChange{
			{Action: ActionAdd, ItemName: "书", Quantity: 1, Pattern: "zh-given"},
		}},
		{"zh remove", "你吃掉了一个面包", []InventoryChange{
			{Action: ActionRemove, ItemName: "面包", Quantity: 1, Pattern: "zh-lost"},
		}},
		{"en add with word numeral", "She gave you three apples.", []InventoryChange{
			{Action: ActionAdd, ItemName: "apples", Quantity: 3, Pattern: "en-obtained"},
		}},
		{"en add with article", "You picked up the key", []InventoryChange{
			{Action: ActionAdd, ItemName: "key", Quantity: 1, Pattern: "en-obtained"},
		}},
		{"en remove", "You dropped 2 stones", []InventoryChange{
			{Action: ActionRemove, ItemName: "stones", Quantity: 2, Pattern: "en-lost"},
		}},
		{"multiple matches", "你获得了十枚金币，又失去了一把剑", []InventoryChange{
			{Action: ActionAdd, ItemName: "金币", Quantity: 10, Pattern: "zh-obtained"},
			{Action: ActionRemove, ItemName: "剑", Quantity: 1, Pattern: "zh-lost"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x.ExtractInventory(tt.text))
		})
	}

	assert.Empty(t, x.ExtractInventory("今天天气很好"))
}

func TestParseQuantity(t *testing.T) {
	tests := map[string]int{
		"":      1,
		"3":     3,
		"12":    12,
		"0":     1,
		"一":     1,
		"两":     2,
		"十":     10,
		"Seven": 7,
		"an":    1,
		"many":  1,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseQuantity(in), "input %q", in)
	}
}

func TestExtractEvent(t *testing.T) {
	x := newTestExtractor()

	tests := []struct {
		name             string
		text             string
		wantType         string
		wantImportance   int
		wantParticipants []string
	}{
		{"critical", "国王去世了", "death", 5, []string{"国王"}},
		{"highest tier wins", "约会之后他们分手了", "breakup", 4, nil},
		{"english", "They met at the station", "meeting", 2, nil},
		{"paired names", "Alice and Bob had a secret", "secret", 3, []string{"Alice", "Bob"}},
		{"zh paired names", "小明和小红，在公园聊天", "chat", 2, []string{"小明", "小红"}},
		{"speaker only", "Alice: hello there", DefaultEventType, 1, []string{"Alice"}},
		{"dedup", "Alice said hi. Alice smiled", DefaultEventType, 1, []string{"Alice"}},
		{"stopwords", "She said nothing. Bob asked why", DefaultEventType, 1, []string{"Bob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := x.ExtractEvent(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantType, got.EventType)
			assert.Equal(t, tt.wantImportance, got.Importance)
			assert.Equal(t, tt.wantParticipants, got.Participants)
			assert.NotEmpty(t, got.Description)
		})
	}

	assert.Nil(t, x.ExtractEvent("the weather is nice"), "plain text yields no event")
	assert.Nil(t, x.ExtractEvent("an update arrived"), "keywords match whole words only")
}

func TestExtract_AllCategories(t *testing.T) {
	x := newTestExtractor()
	got := x.Extract(context.Background(), "alice", "好感度增加了10点。Alice 笑了，走进了图书馆，给了你 3 个苹果")

	require.NotNil(t, got.Affection)
	assert.Equal(t, 60, got.Affection.NewValue)
	require.NotNil(t, got.Emotion)
	assert.Equal(t, types.EmotionHappy, got.Emotion.Emotion)
	require.NotNil(t, got.Location)
	assert.Equal(t, "图书馆", got.Location.Name)
	require.Len(t, got.Inventory, 1)
	assert.Equal(t, "苹果", got.Inventory[0].ItemName)
	require.NotNil(t, got.Event)
	assert.Contains(t, got.Event.Participants, "Alice")
	assert.False(t, got.Empty())

	assert.True(t, x.Extract(context.Background(), "alice", "   ").Empty())
}

func TestExtractor_RecoversFromPanics(t *testing.T) {
	x := newTestExtractor()
	x.emotions = nil
	x.events = nil // index out of range inside ExtractEvent

	assert.NotPanics(t, func() {
		assert.Nil(t, x.ExtractEvent("国王去世了"))
	})
	assert.Nil(t, x.ExtractEmotion("开心"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABC123,!", Normalize("  ＡＢＣ１２３，！ "))
}
