package prompt

import "fmt"

// BuildSingleExtractionPrompt builds the structuring prompt for a
// single-sided card. The service must answer with exactly the six
// single-sided keys, empty string for anything it cannot find.
func BuildSingleExtractionPrompt(rawText string) string {
	return fmt.Sprintf(`You are an expert business card information extractor for Korean and English business cards.
From the provided text, identify and extract the required information into a valid JSON format.

Instructions:
1. Extract ONLY the information that is clearly present in the text
2. For missing information, use empty string ""
3. Phone numbers should be in Korean format (010-1234-5678)
4. Names should be properly formatted (Korean: 홍길동, English: John Smith)
5. Return ONLY valid JSON, no explanations

Required JSON structure:
{
    "name": "",
    "title": "",
    "company": "",
    "phone": "",
    "email": "",
    "address": ""
}

--- Text to Analyze ---
%s`, rawText)
}

// BuildBilingualExtractionPrompt builds the structuring prompt for a
// two-sided Korean/English card. The front and back OCR texts are presented
// as one labeled block and the service fills the _ko fields from the Korean
// side and the _en fields from the English side in a single pass. Phone and
// email are shared between sides.
func BuildBilingualExtractionPrompt(frontText, backText string) string {
	return fmt.Sprintf(`You are an expert business card information extractor for two-sided (Korean/English) business cards.
The front side is printed in Korean and the back side in English; both describe the same person.
Extract the required information into a valid JSON format.

Instructions:
1. Populate the _ko fields from the Korean side and the _en fields from the English side
2. "phone" and "email" are shared between sides: use whichever side prints them
3. For missing information, use empty string ""
4. Phone numbers should be in Korean format (010-1234-5678)
5. Return ONLY valid JSON, no explanations

Required JSON structure:
{
    "name_ko": "",
    "name_en": "",
    "title_ko": "",
    "title_en": "",
    "company_ko": "",
    "company_en": "",
    "phone": "",
    "email": "",
    "address_ko": "",
    "address_en": ""
}

--- Combined Text to Analyze ---
--- Front Side (Korean) ---
%s

--- Back Side (English) ---
%s`, frontText, backText)
}
