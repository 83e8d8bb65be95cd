package insight

import (
	"sort"

	"ashiato/journal/internal/clients"
)

// TopAbility is the most frequent ability, or "" when nothing has been
// counted yet.
func TopAbility(counts []clients.AbilityCount) string {
	sorted := append([]clients.AbilityCount(nil), counts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count > sorted[j].Count })
	if len(sorted) == 0 || sorted[0].Count == 0 {
		return ""
	}
	return sorted[0].AbilityName
}

// WeakAbility is the least frequent named ability.
func WeakAbility(counts []clients.AbilityCount) string {
	sorted := append([]clients.AbilityCount(nil), counts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Count < sorted[j].Count })
	for _, ability := range sorted {
		if ability.AbilityName != "" && ability.AbilityID != "" {
			return ability.AbilityName
		}
	}
	return ""
}

func AISummary(studentName, themeTitle, topAbility, weakAbility string, totalReports int) string {
	if totalReports <= 0 || topAbility == "" {
		return studentName + "さんはこれから伸びしろが大きい段階です。まずは小さな気づきでもよいので、写真と一緒に「やったこと・分かったこと・次にすること」を継続して記録していきましょう。"
	}
	themePart := "探究テーマ"
	if themeTitle != "" {
		themePart = "「" + themeTitle + "」"
	}
	weakPart := "次の報告では「問い→行動→振り返り」の流れを意識すると、学びが深まります。"
	if weakAbility != "" {
		weakPart = "次は" + weakAbility + "を意識した一手（問いを深める/検証する等）を入れると、学びの質が上がります。"
	}
	return topAbility + "が優れています。" + themePart + "に対してゴールのイメージを持ちながら、調べ方や進め方を組み立てて取り組めています。" + weakPart
}

var guidanceHints = map[string]string{
	"info":    "情報収集では、信頼できる情報源（一次情報/公的データ）を一緒に確認しましょう。「なぜその情報源を選んだか」を振り返らせると力が伸びます。",
	"plan":    "課題設定は「誰の、どんな困りごとを、どう変えたいか」を明確にすると進みます。仮説と検証方法をセットで書かせる指導が効果的です。",
	"involve": "巻き込む力は、協力者のメリットを言語化すると伸びます。声をかける相手と依頼内容を具体化し、短い期限で小さく頼む練習を入れましょう。",
	"dialog":  "対話は「質問→相手の言葉→自分の解釈」を分けて記録させると深まります。インタビュー前に質問を3つ作る時間を取るのも有効です。",
	"execute": "実行は「今日やる最小タスク」を決めると進みます。やることを小さく分解し、完了条件を明確にして報告に残させましょう。",
	"humble":  "謙虚さは、失敗や想定外を「学び」に変える視点で育ちます。うまくいかなかった理由と次の改善案を1セットで書かせるのが効果的です。",
	"finish":  "完遂は、締切とアウトプット形式（ポスター/スライド等）を先に決めると強いです。週次で「進捗率」を見える化して伴走しましょう。",
	"other":   "報告内容から「根拠（何を見た/聞いた/試したか）」を必ず1つ入れるよう促しましょう。次の一手が具体的になり、指導もしやすくなります。",
}

// AbilityKey maps an ability name to its hint key.
func AbilityKey(name string) string {
	if matcher := matchAbility(name); matcher != nil {
		return matcher.key
	}
	return "other"
}

func GuidanceHint(weakAbility string, totalReports int) string {
	if totalReports <= 0 {
		return "まずは「なぜそう思った？」「どこでそれが分かった？」を一言添えるだけでOKです。報告の質が上がり、次の指導ポイントも見えやすくなります。"
	}
	key := "other"
	if weakAbility != "" {
		key = AbilityKey(weakAbility)
	}
	return guidanceHints[key]
}

// AlertIcon renders a roster alert level.
func AlertIcon(level int) string {
	switch {
	case level >= 3:
		return "🚨"
	case level == 2:
		return "‼️"
	case level == 1:
		return "❗"
	}
	return ""
}

// StrengthLabel describes an analysis ability score.
func StrengthLabel(score int) string {
	if score >= 80 {
		return "強く発揮"
	}
	return "発揮"
}
