package insight

import (
	"sort"
	"strings"

	"ashiato/journal/internal/clients"
)

// FallbackBooks is shown when the book master is unavailable or empty.
var FallbackBooks = []clients.Book{
	{
		Title:              "マインドセット やればできる！の研究",
		Author:             "キャロル・S・ドゥエック",
		Description:        "この本は、人の能力は生まれつき決まっているものではなく、考え方次第で伸ばせるという「成長マインドセット」を科学的に解説しています。失敗を「才能がない証拠」と捉えるか、「成長の途中」と捉えるかで、その後の人生は大きく変わることが示されます。",
		CoverImageURL:      "/static/books/マインドセット.png",
		RecommendedComment: "高校生におすすめなのは、テストの点数や部活の結果で自分の価値を決めなくてよくなるからです。努力の意味を正しく理解でき、自分を諦めなくて済む思考の土台を作ってくれる一冊です。",
	},
	{
		Title:              "チェンジ・モンスター",
		Author:             "ジーニー・ダニエル・ダック",
		Description:        "人は変わったほうがいいと頭では分かっていても、なぜか変化を拒んでしまう。その正体を「チェンジ・モンスター」という概念で解き明かす本です。変化を妨げるのは怠けではなく、人間の本能的な反応だと説明されます。",
		CoverImageURL:      "/static/books/チェンジモンスター.png",
		RecommendedComment: "高校生にとって重要なのは、「変われない自分」を責めなくてよくなる点です。進路選択や挑戦が怖くなる理由を構造的に理解でき、自分をコントロールする視点が手に入ります。",
	},
	{
		Title:              "LIFE SHIFT 100年時代の人生戦略",
		Author:             "リンダ・グラットン / アンドリュー・スコット",
		Description:        "人生100年時代では、学校を出て就職し定年まで働くという一本道の人生は通用しないと説く本です。学び直し、複数のキャリア、長期視点での人生設計が必要だと示されます。",
		CoverImageURL:      "/static/books/ライフシフト.png",
		RecommendedComment: "高校生におすすめなのは、「今決めた進路が一生を縛るわけではない」と知れるからです。将来への不安が減り、人生を長いゲームとして捉える視点が育ちます。選択を柔軟に考える力が身につきます。",
	},
	{
		Title:              "ポートフォリオワーカー",
		Author:             "マダム・ホー",
		Description:        "一つの会社や仕事に依存せず、複数のスキルや収入源を組み合わせて生きる「ポートフォリオワーク」という働き方を紹介する本です。好きなことや得意なことを掛け合わせて価値を作る考え方が描かれています。",
		CoverImageURL:      "/static/books/ポートフォリオワーカー.png",
		RecommendedComment: "高校生におすすめなのは、「やりたいことが一つに決まらなくていい」と分かるからです。将来の仕事を点ではなく線や面で考えられるようになり、自分らしい働き方の発想が広がります。",
	},
	{
		Title:              "ミドルからの変革",
		Author:             "長谷川博和 / 池上重輔 / 大場幸子",
		Description:        "本来は社会人向けの本ですが、「組織や社会はどう変わるのか」を知る入門書として非常に有効です。変革は一部の天才が起こすものではなく、現場の小さな行動の積み重ねから生まれると語られます。",
		CoverImageURL:      "/static/books/ミドルからの変革.png",
		RecommendedComment: "高校生におすすめなのは、社会を「決まったルールの世界」ではなく「自分たちで更新できるもの」として捉えられるようになる点です。主体的に社会を見る視点が育ちます。",
	},
}

const (
	titleMindset   = "マインドセット やればできる！の研究"
	titleChange    = "チェンジ・モンスター"
	titleLifeShift = "LIFE SHIFT 100年時代の人生戦略"
	titlePortfolio = "ポートフォリオワーカー"
	titleMiddle    = "ミドルからの変革"
)

type abilityMatcher struct {
	key      string
	keywords []string
	titles   []string
}

// Matchers are checked in order; the first hit decides.
var abilityMatchers = []abilityMatcher{
	{"info", []string{"情報収集", "先を見る"}, []string{titleLifeShift}},
	{"plan", []string{"課題設定", "構想"}, []string{titleChange}},
	{"involve", []string{"巻き込む"}, []string{titleMiddle}},
	{"dialog", []string{"対話"}, []string{titleMiddle, titleChange}},
	{"execute", []string{"実行"}, []string{titleChange, titleMindset}},
	{"humble", []string{"謙虚"}, []string{titleMindset}},
	{"finish", []string{"完遂"}, []string{titleMindset}},
}

func matchAbility(name string) *abilityMatcher {
	for i := range abilityMatchers {
		for _, keyword := range abilityMatchers[i].keywords {
			if strings.Contains(name, keyword) {
				return &abilityMatchers[i]
			}
		}
	}
	return nil
}

// HashStringToInt is the 31-multiplier string hash with 32-bit wraparound,
// made non-negative.
func HashStringToInt(value string) int {
	var hash int32
	for _, unit := range utf16Units(value) {
		hash = hash*31 + int32(unit)
	}
	if hash < 0 {
		return -int(hash)
	}
	return int(hash)
}

func utf16Units(value string) []uint16 {
	units := make([]uint16, 0, len(value))
	for _, r := range value {
		if r >= 0x10000 {
			r -= 0x10000
			units = append(units, uint16(0xD800+(r>>10)), uint16(0xDC00+(r&0x3FF)))
			continue
		}
		units = append(units, uint16(r))
	}
	return units
}

// PickRecommendedBooks chooses up to limit books. Weakest abilities pick
// first through the keyword matchers, then the list rotated by the seed
// fills the rest. limit <= 0 means 3.
func PickRecommendedBooks(books []clients.Book, counts []clients.AbilityCount, seed string, limit int) []clients.Book {
	if len(books) == 0 {
		return nil
	}
	if limit <= 0 {
		limit = 3
	}

	byTitle := make(map[string]clients.Book, len(books))
	for _, book := range books {
		byTitle[book.Title] = book
	}

	chosen := make([]clients.Book, 0, limit)
	taken := make(map[string]bool)

	sorted := append([]clients.AbilityCount(nil), counts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count < sorted[j].Count })
	for _, ability := range sorted {
		if len(chosen) >= limit {
			break
		}
		matcher := matchAbility(ability.AbilityName)
		if matcher == nil {
			continue
		}
		for _, title := range matcher.titles {
			book, ok := byTitle[title]
			if !ok || taken[book.Title] {
				continue
			}
			chosen = append(chosen, book)
			taken[book.Title] = true
			break
		}
	}

	if len(chosen) < limit {
		if seed == "" {
			seed = "default"
		}
		offset := HashStringToInt(seed) % len(books)
		rotated := append(append([]clients.Book(nil), books[offset:]...), books[:offset]...)
		for _, book := range rotated {
			if len(chosen) >= limit {
				break
			}
			if taken[book.Title] {
				continue
			}
			chosen = append(chosen, book)
			taken[book.Title] = true
		}
	}
	return chosen
}

var bookReasons = map[string]string{
	titleMindset:   "失敗を成長に変える思考で挑戦を後押しします",
	titleChange:    "変化への抵抗を理解し行動に移す力を育てます",
	titleLifeShift: "長期視点で進路を捉え、不安を整理できます",
	titlePortfolio: "得意を掛け合わせ、自分らしい選択肢を広げます",
	titleMiddle:    "周囲を巻き込み、小さな行動で変革を起こす視点",
}

func BookShortReason(title string) string {
	if reason, ok := bookReasons[title]; ok {
		return reason
	}
	return "指導の観点を広げ、生徒の次の一歩を支えます"
}
