package tts

import "strings"

// Voice 是音色目录中的一个角色。ProviderVoice 是 Gemini 预置音色名，
// 其他引擎通过各自配置里的 voices 映射把 ID 换成本引擎的音色。
type Voice struct {
	ID            string
	Name          string
	ProviderVoice string
	Gender        string
	Persona       string
	Description   string
	Tags          []string
	Recommended   bool
}

var maleVoices = []Voice{
	{ID: "arjun", Name: "Arjun (Studio News)", ProviderVoice: "Charon", Gender: "Male",
		Persona:     "A professional news anchor with a sharp, authoritative, and fast-paced delivery.",
		Description: "The gold standard for News and formal announcements.",
		Tags:        []string{"Google Studio", "Authoritative", "News"}, Recommended: true},
	{ID: "vikram", Name: "Vikram (Studio Documentary)", ProviderVoice: "Puck", Gender: "Male",
		Persona:     "A wise narrator with a resonant, steady, and cinematic storytelling tone.",
		Description: "Deep and resonant. Best for Documentaries.",
		Tags:        []string{"Google Studio", "Resonant", "Narrator"}, Recommended: true},
	{ID: "ishaan", Name: "Ishaan (Studio Social)", ProviderVoice: "Fenrir", Gender: "Male",
		Persona:     "A friendly, youthful, and high-energy social media influencer.",
		Description: "Perfect for Reels, YouTube, and energetic content.",
		Tags:        []string{"Google Studio", "Youthful", "Friendly"}, Recommended: true},
	{ID: "kabir", Name: "Kabir (Studio Wise)", ProviderVoice: "Zephyr", Gender: "Male",
		Persona:     "A mature, calm, and soulful elder with deep emotional intelligence.",
		Description: "Great for heritage and cultural storytelling.",
		Tags:        []string{"Google Studio", "Mature", "Soulful"}, Recommended: true},
	{ID: "rohan", Name: "Rohan (Studio Tech)", ProviderVoice: "Fenrir", Gender: "Male",
		Persona:     "A fast-talking, precise, and tech-savvy reviewer.",
		Description: "Ideal for product reviews and sports commentary.",
		Tags:        []string{"Google Studio", "Fast", "Tech"}},
	{ID: "sameer", Name: "Sameer (Studio Trust)", ProviderVoice: "Puck", Gender: "Male",
		Persona:     "A helpful, warm, and trustworthy customer support expert.",
		Description: "Smooth and calm. Perfect for tutorials.",
		Tags:        []string{"Google Studio", "Trustworthy", "Tutorial"}},
	{ID: "yash", Name: "Yash (Studio Action)", ProviderVoice: "Charon", Gender: "Male",
		Persona:     "A powerful, loud, and commanding leader giving a public speech.",
		Description: "Best for political rallies or bold advertisements.",
		Tags:        []string{"Google Studio", "Commanding", "Strong"}},
	{ID: "aditya", Name: "Aditya (Studio Story)", ProviderVoice: "Zephyr", Gender: "Male",
		Persona:     "A warm, inviting, and mysterious book narrator.",
		Description: "Perfect for fiction audiobooks and bedtime stories.",
		Tags:        []string{"Google Studio", "Warm", "Fiction"}},
	{ID: "shivam", Name: "Shivam (Studio Business)", ProviderVoice: "Puck", Gender: "Male",
		Persona:     "A polished, corporate executive giving a high-stakes presentation.",
		Description: "Excellent for B2B and business presentations.",
		Tags:        []string{"Google Studio", "Polished", "Business"}},
	{ID: "dev", Name: "Dev (Studio Drama)", ProviderVoice: "Charon", Gender: "Male",
		Persona:     "An emotional actor with a rich, melodic, and dramatic flair.",
		Description: "Rich and melodic. Ideal for poetry or drama.",
		Tags:        []string{"Google Studio", "Dramatic", "Rich"}},
	{ID: "aryan", Name: "Aryan (Studio Stoic)", ProviderVoice: "Fenrir", Gender: "Male",
		Persona:     "A calm, unflappable, and deep-thinking philosopher.",
		Description: "Best for meditation or long-form video essays.",
		Tags:        []string{"Google Studio", "Stoic", "Steady"}},
	{ID: "vihaan", Name: "Vihaan (Studio Kids)", ProviderVoice: "Zephyr", Gender: "Male",
		Persona:     "An upbeat, cheerful, and friendly animated character.",
		Description: "Great for children content and positive ads.",
		Tags:        []string{"Google Studio", "Upbeat", "Cheerful"}},
}

// FemaleVoice 是唯一的女声。
var FemaleVoice = Voice{
	ID: "ananya", Name: "Ananya (Studio Female)", ProviderVoice: "Kore", Gender: "Female",
	Persona:     "A soft, melodic, and professional female voice.",
	Description: "Soft and soulful. Verified Female output.",
	Tags:        []string{"Google Studio", "Soft", "Melodic"},
}

// PreviewText 是试听音色时朗读的句子。
const PreviewText = "नमस्कार, यह गूगल एआई स्टूडियो की आवाज़ है।"

// Voices 返回完整音色目录（男声在前，女声最后）。
func Voices() []Voice {
	out := make([]Voice, 0, len(maleVoices)+1)
	out = append(out, maleVoices...)
	return append(out, FemaleVoice)
}

// DefaultVoice 返回默认音色。
func DefaultVoice() Voice {
	return maleVoices[0]
}

// LookupVoice 按 ID 查找音色，大小写不敏感。
func LookupVoice(id string) (Voice, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, v := range Voices() {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}

// Slug 返回用于文件名的音色名：小写，空白替换为 "-"。
func (v Voice) Slug() string {
	return strings.Join(strings.Fields(strings.ToLower(v.Name)), "-")
}
