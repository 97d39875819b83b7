package synthesis

import (
	"fmt"
	"strings"
)

// Prompt builders. Design rules, learned the hard way:
//   - State the task, then the data, then the schema — the schema is the last
//     thing the model sees.
//   - Always demand ONLY valid JSON; the decoder still assumes the model
//     ignored that.
const systemTeaching = "You are a helpful teaching assistant. Return only valid JSON, no additional text."

func marksPrompt(narrative string) string {
	return fmt.Sprintf(`Analyze the following student marks summary and provide:
1. Performance summary
2. Teaching strategy suggestions

Summary Data:
%s

Return ONLY valid JSON in this exact format:
{"performance_summary": "...", "teaching_strategy": "..."}`, narrative)
}

func assessmentPrompt(spec AssessmentSpec) string {
	return fmt.Sprintf(`You are an expert teacher creating an assessment.

Generate %d questions for:
- Subject: %s
- Unit/Topic: %s
- Difficulty Level: %s

Create a mix of Multiple Choice Questions (MCQs) and Short Answer questions.
For each question, include a Bloom's Taxonomy level (Remember, Understand, Apply, Analyze, Evaluate, Create).
MCQ questions carry exactly 4 options and a correct_answer letter.

Return ONLY valid JSON in this exact format:
{
  "assessment_title": "%s - %s Assessment",
  "total_questions": %d,
  "questions": [
    {"question_number": 1, "question_text": "What is...", "question_type": "MCQ",
     "options": ["A) ...", "B) ...", "C) ...", "D) ..."], "correct_answer": "A",
     "bloom_level": "Remember", "marks": 2},
    {"question_number": 2, "question_text": "Explain...", "question_type": "Short Answer",
     "bloom_level": "Understand", "marks": 5}
  ]
}`, spec.NumQuestions, spec.Subject, spec.Unit, spec.Difficulty,
		spec.Subject, spec.Unit, spec.NumQuestions)
}

func assessmentFromContentPrompt(content string, spec AssessmentSpec) string {
	return fmt.Sprintf(`You are an expert teacher creating an assessment based on the following study material.

STUDY MATERIAL:
%s

Based ONLY on the content above, generate %d questions for:
- Subject: %s
- Unit/Topic: %s
- Difficulty Level: %s

IMPORTANT: Create questions that test understanding of the SPECIFIC content provided above.
Do NOT create generic questions - use actual facts, concepts, and examples from the material.

Create a mix of Multiple Choice Questions (MCQs) and Short Answer questions.
For each question, include a Bloom's Taxonomy level.

Return ONLY valid JSON in this exact format:
{
  "assessment_title": "%s - %s Assessment",
  "total_questions": %d,
  "source": "Generated from uploaded material",
  "questions": [
    {"question_number": 1, "question_text": "Based on the material, what is...",
     "question_type": "MCQ", "options": ["A) ...", "B) ...", "C) ...", "D) ..."],
     "correct_answer": "A", "bloom_level": "Remember", "marks": 2}
  ]
}`, content, spec.NumQuestions, spec.Subject, spec.Unit, spec.Difficulty,
		spec.Subject, spec.Unit, spec.NumQuestions)
}

func feedbackPrompt(spec FeedbackSpec) string {
	return fmt.Sprintf(`Generate personalized feedback for:
Student: %s
Score: %.2f
Weak Topics: %s

Include strengths, weak areas, an improvement plan, and a motivational message.

Return ONLY valid JSON in this exact format:
{"strengths": "...", "weak_areas": "...", "improvement_plan": "...", "motivational_message": "..."}`,
		spec.StudentName, spec.Score, strings.Join(spec.WeakTopics, ", "))
}

func syllabusPrompt(text string) string {
	return fmt.Sprintf(`Analyze the following syllabus text:
1. Extract major topics
2. Suggest assessment focus areas

Text:
%s

Return ONLY valid JSON in this exact format:
{"major_topics": ["...", "..."], "assessment_focus": ["...", "..."]}`, text)
}

func attendancePrompt(summary string) string {
	return fmt.Sprintf(`Analyze this student attendance summary:
%s

Identify:
1. Students with worrying attendance trends
2. Impact on class engagement
3. Simple suggestions for the teacher

Return ONLY valid JSON in this exact format:
{"risk_analysis": "...", "engagement_score": 0, "suggestions": ["..."]}
engagement_score is a number from 0 to 100.`, summary)
}

func gapsPrompt(performanceSummary string, topics []string) string {
	return fmt.Sprintf(`Compare student performance with syllabus topics:
Syllabus: %s
Performance Summary: %s

Identify where students are failing to understand specific topics (learning gaps).
Provide a recovery plan.

Return ONLY valid JSON in this exact format:
{"detected_gaps": ["topic 1", "topic 2"], "recovery_plan": "Specific teaching steps...", "at_risk_topics": ["topic A"]}`,
		strings.Join(topics, ", "), performanceSummary)
}

func attendanceRecordsPrompt(text string) string {
	return fmt.Sprintf(`The following text was extracted from an attendance sheet.
Turn it into structured records. Status must be exactly "Present" or "Absent".

Text:
%s

Return ONLY valid JSON in this exact format:
{"records": [{"student_name": "...", "status": "Present"}]}`, text)
}

func lecturePrompt(transcript string) string {
	return fmt.Sprintf(`The following is a lecture transcript. Structure it into study notes.

Transcript:
%s

Return ONLY valid JSON in this exact format:
{"title": "...", "summary": "...", "topics": ["..."], "concepts": ["..."],
 "definitions": ["term: meaning"], "examples": ["..."]}`, transcript)
}

func engagementPrompt(summary string) string {
	return fmt.Sprintf(`Here is an overview of a class's recent performance and attendance:
%s

Assess overall engagement and suggest what the teacher should do next.

Return ONLY valid JSON in this exact format:
{"engagement_score": 0, "summary": "...", "suggestions": ["..."]}
engagement_score is a number from 0 to 100.`, summary)
}

// truncateWords keeps the first n whitespace-separated words, marking the
// cut. Token-budget discipline for material-grounded prompts.
func truncateWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ") + "... [content truncated]"
}
