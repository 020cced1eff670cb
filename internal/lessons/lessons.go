// Package lessons holds the static curriculum: an ordered lesson sequence
// per teaching language, partitioned into level blocks. Higher starting
// levels skip the earlier blocks.
package lessons

import (
	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// BlockSize is the number of lessons in each level block.
const BlockSize = 5

// Lesson is one curriculum entry. IDs are 1-based and sequential within a
// language.
type Lesson struct {
	ID    int
	Topic string
	Focus string
	Level models.Level
}

var curriculum = map[string][]Lesson{
	models.LanguageEnglish: {
		{1, "Greetings and Introductions", "hello, goodbye, my name is", models.LevelBeginner},
		{2, "Numbers and the Alphabet", "spelling, counting 1-100", models.LevelBeginner},
		{3, "Present Simple", "daily routines, do/does questions", models.LevelBeginner},
		{4, "Family and Descriptions", "possessives, adjectives", models.LevelBeginner},
		{5, "Food and Ordering", "countable/uncountable, would like", models.LevelBeginner},
		{6, "Present Continuous", "actions in progress, -ing forms", models.LevelBasic},
		{7, "Past Simple", "regular and irregular verbs", models.LevelBasic},
		{8, "Making Plans", "going to, will, invitations", models.LevelBasic},
		{9, "Comparatives and Superlatives", "bigger, the best", models.LevelBasic},
		{10, "Directions and Places", "prepositions of place, there is/are", models.LevelBasic},
		{11, "Present Perfect", "ever/never, for/since", models.LevelIntermediate},
		{12, "Modal Verbs", "should, must, might", models.LevelIntermediate},
		{13, "First and Second Conditionals", "if clauses, hypotheticals", models.LevelIntermediate},
		{14, "Phrasal Verbs in Context", "get up, look after, run into", models.LevelIntermediate},
		{15, "Reported Speech", "said that, told me to", models.LevelIntermediate},
		{16, "Passive Voice", "is made, was built", models.LevelAdvanced},
		{17, "Third Conditional and Mixed", "regrets, unreal past", models.LevelAdvanced},
		{18, "Idioms and Collocations", "natural expressions", models.LevelAdvanced},
		{19, "Debate and Opinion", "agreeing, disagreeing, nuance", models.LevelAdvanced},
		{20, "Professional English", "meetings, emails, negotiation", models.LevelAdvanced},
	},
	models.LanguageSpanish: {
		{1, "Saludos y Presentaciones", "hola, adiós, me llamo", models.LevelBeginner},
		{2, "Números y el Alfabeto", "deletrear, contar 1-100", models.LevelBeginner},
		{3, "Presente de Indicativo", "verbos -ar/-er/-ir", models.LevelBeginner},
		{4, "Ser y Estar", "descripciones y estados", models.LevelBeginner},
		{5, "Comida y Restaurante", "pedir, gustar", models.LevelBeginner},
		{6, "Verbos Reflexivos", "rutina diaria", models.LevelBasic},
		{7, "Pretérito Indefinido", "pasado simple", models.LevelBasic},
		{8, "Pretérito Imperfecto", "descripciones del pasado", models.LevelBasic},
		{9, "Comparativos", "más que, tan como", models.LevelBasic},
		{10, "Direcciones y Ciudad", "hay, estar, preposiciones", models.LevelBasic},
		{11, "Futuro y Condicional", "planes e hipótesis", models.LevelIntermediate},
		{12, "Subjuntivo Presente", "deseos y dudas", models.LevelIntermediate},
		{13, "Pretérito Perfecto", "experiencias", models.LevelIntermediate},
		{14, "Pronombres de Objeto", "lo, la, le, se", models.LevelIntermediate},
		{15, "Estilo Indirecto", "dijo que", models.LevelIntermediate},
		{16, "Subjuntivo Imperfecto", "condicionales irreales", models.LevelAdvanced},
		{17, "Voz Pasiva y Se Impersonal", "se habla, fue construido", models.LevelAdvanced},
		{18, "Modismos", "expresiones idiomáticas", models.LevelAdvanced},
		{19, "Debate y Opinión", "argumentar con matices", models.LevelAdvanced},
		{20, "Español Profesional", "reuniones y correos", models.LevelAdvanced},
	},
	models.LanguageFrench: {
		{1, "Salutations et Présentations", "bonjour, je m'appelle", models.LevelBeginner},
		{2, "Nombres et Alphabet", "épeler, compter 1-100", models.LevelBeginner},
		{3, "Présent de l'Indicatif", "verbes -er, être, avoir", models.LevelBeginner},
		{4, "Articles et Genre", "le, la, un, une", models.LevelBeginner},
		{5, "Nourriture et Café", "commander, vouloir", models.LevelBeginner},
		{6, "Verbes Pronominaux", "routine quotidienne", models.LevelBasic},
		{7, "Passé Composé", "avoir et être auxiliaires", models.LevelBasic},
		{8, "Imparfait", "descriptions du passé", models.LevelBasic},
		{9, "Comparatifs", "plus que, aussi que", models.LevelBasic},
		{10, "Directions et Ville", "il y a, prépositions", models.LevelBasic},
		{11, "Futur Simple et Proche", "projets", models.LevelIntermediate},
		{12, "Subjonctif Présent", "il faut que", models.LevelIntermediate},
		{13, "Pronoms Compléments", "le, lui, y, en", models.LevelIntermediate},
		{14, "Conditionnel", "politesse et hypothèses", models.LevelIntermediate},
		{15, "Discours Indirect", "il a dit que", models.LevelIntermediate},
		{16, "Plus-que-parfait", "antériorité", models.LevelAdvanced},
		{17, "Voix Passive", "est fait, a été construit", models.LevelAdvanced},
		{18, "Expressions Idiomatiques", "tournures naturelles", models.LevelAdvanced},
		{19, "Débat et Opinion", "nuancer un argument", models.LevelAdvanced},
		{20, "Français Professionnel", "réunions et courriels", models.LevelAdvanced},
	},
	models.LanguageMandarin: {
		{1, "问候与介绍", "你好, 再见, 我叫", models.LevelBeginner},
		{2, "数字与声调", "一到一百, 四声", models.LevelBeginner},
		{3, "基本句型", "主语+动词+宾语, 是", models.LevelBeginner},
		{4, "家庭与量词", "个, 口, 家人称谓", models.LevelBeginner},
		{5, "点餐", "要, 喜欢, 菜单词汇", models.LevelBeginner},
		{6, "时间表达", "点, 分, 今天, 明天", models.LevelBasic},
		{7, "完成态 了", "动作完成", models.LevelBasic},
		{8, "方向与位置", "在, 上, 下, 旁边", models.LevelBasic},
		{9, "比较句", "比, 一样", models.LevelBasic},
		{10, "购物与价格", "多少钱, 讨价还价", models.LevelBasic},
		{11, "经历态 过", "去过, 吃过", models.LevelIntermediate},
		{12, "能愿动词", "会, 能, 可以, 应该", models.LevelIntermediate},
		{13, "把字句", "处置结构", models.LevelIntermediate},
		{14, "结果补语", "完, 好, 到", models.LevelIntermediate},
		{15, "间接引语", "他说", models.LevelIntermediate},
		{16, "被字句", "被动结构", models.LevelAdvanced},
		{17, "成语入门", "四字成语", models.LevelAdvanced},
		{18, "正式与非正式语体", "书面语与口语", models.LevelAdvanced},
		{19, "讨论与观点", "表达立场", models.LevelAdvanced},
		{20, "商务中文", "会议与邮件", models.LevelAdvanced},
	},
}

// ForLanguage returns the ordered curriculum for a language, or nil when the
// language is not supported.
func ForLanguage(language string) []Lesson {
	return curriculum[language]
}

// ByID returns the lesson with the given ID for a language. Out-of-range IDs
// clamp to the nearest end so a stale pointer still resolves to a lesson.
func ByID(language string, id int) (Lesson, bool) {
	seq := curriculum[language]
	if len(seq) == 0 {
		return Lesson{}, false
	}
	if id < 1 {
		id = 1
	}
	if id > len(seq) {
		id = len(seq)
	}
	return seq[id-1], true
}

// Next returns the lesson after currentID. Reports false when currentID is
// already at (or past) the final lesson.
func Next(language string, currentID int) (Lesson, bool) {
	seq := curriculum[language]
	if len(seq) == 0 || currentID >= len(seq) {
		return Lesson{}, false
	}
	return ByID(language, currentID+1)
}

// StartingLesson maps a self-reported level to the first lesson of its
// block. Levels above the defined blocks start at the last block.
func StartingLesson(level models.Level) int {
	switch level {
	case models.LevelBasic:
		return BlockSize + 1
	case models.LevelIntermediate:
		return 2*BlockSize + 1
	case models.LevelAdvanced, models.LevelFluent:
		return 3*BlockSize + 1
	}
	return 1
}
