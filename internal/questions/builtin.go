package questions

const (
	Intelligence = "intelligence"
	Originality  = "originality"
	Cogency      = "cogency"
	Quality      = "quality"
)

func builtin() []Set {
	return []Set{
		MustNew(Intelligence, []string{
			"IS IT INSIGHTFUL?",
			"DOES IT DEVELOP POINTS? (OR, IF IT IS A SHORT EXCERPT, IS THERE EVIDENCE THAT IT WOULD DEVELOP POINTS IF EXTENDED)?",
			"IS THE ORGANIZATION MERELY SEQUENTIAL (JUST ONE POINT AFTER ANOTHER) OR ARE THE IDEAS ARRANGED, NOT JUST SEQUENTIALLY BUT HIERARCHICALLY?",
			"IF THE POINTS IT MAKES ARE NOT INSIGHTFUL, DOES IT OPERATE SKILLFULLY WITH CANONS OF LOGIC/REASONING?",
			"ARE THE POINTS CLICHES? OR ARE THEY FRESH?",
			"DOES IT USE TECHNICAL JARGON TO OBFUSCATE OR TO RENDER MORE PRECISE?",
			"IS IT ORGANIC? DO POINTS DEVELOP IN AN ORGANIC WAY? DO THEY GROW FROM EACH OTHER?",
			"DOES IT OPEN UP NEW DOMAINS? OR, ON THE CONTRARY, DOES IT SHUT OFF INQUIRY?",
			"IS IT ACTUALLY INTELLIGENT OR JUST THE WORK OF SOMEBODY WHO, JUDGING BY THE SUBJECT-MATTER, IS PRESUMED TO BE INTELLIGENT?",
			"IS IT REAL OR IS IT PHONY?",
			"DO THE SENTENCES EXHIBIT COMPLEX AND COHERENT INTERNAL LOGIC?",
			"IS THE PASSAGE GOVERNED BY A STRONG CONCEPT? OR IS THE ONLY ORGANIZATION DRIVEN PURELY BY EXPOSITORY NORMS?",
			"IS THERE SYSTEM-LEVEL CONTROL OVER IDEAS? DOES THE AUTHOR SEEM TO RECALL WHAT HE SAID EARLIER AND INTEGRATE IT INTO POINTS HE MAKES LATER?",
			"ARE THE POINTS REAL? ARE THEY FRESH? OR IS SOME INSTITUTION OR SOME ACCEPTED VEIN OF PROPAGANDA OR ORTHODOXY ALLOWING THE AUTHOR TO MAKE POINTS WITHOUT BEING FRESH?",
			"IS THE WRITING EVASIVE OR DIRECT?",
			"ARE THE STATEMENTS AMBIGUOUS?",
			"DOES THE PROGRESSION OF THE TEXT DEVELOP ACCORDING TO WHO SAID WHAT OR ACCORDING TO WHAT ENTAILS OR CONFIRMS WHAT?",
			"DOES THE AUTHOR USE OTHER AUTHORS TO DEVELOP HIS IDEAS OR TO CLOAK HIS OWN LACK OF IDEAS?",
		}),
		MustNew(Originality, []string{
			"IS IT ORIGINAL (NOT IN THE SENSE THAT IT HAS ALREADY BEEN SAID BUT IN THE SENSE THAT ONLY A FECUND MIND COULD COME UP WITH IT)?",
			"ARE THE WAYS THE IDEAS ARE INTERCONNECTED ORIGINAL? OR ARE THOSE INTERCONNECTIONS CONVENTION-DRIVEN AND DOCTRINAIRE?",
			"ARE IDEAS DEVELOPED IN A FRESH AND ORIGINAL WAY? OR IS THE IDEA-DEVELOPMENT MERELY ASSOCIATIVE, COMMONSENSE-BASED, OR DOCTRINAIRE?",
			"IS IT ORIGINAL RELATIVE TO THE DATASET THAT THE EVALUATOR IS DRAWING ON?",
			"IS IT ORIGINAL IN A SUBSTANTIVE SENSE (IN THE SENSE IN WHICH BACH WAS ORIGINAL) OR ONLY IN A FRIVOLOUS TOKEN SENSE?",
			"IS IT BOILERPLATE (OR IF IT, PER SE, IS NOT BOILER PLATE, IS IT THE RESULT OF APPLYING BOILER-PLATE PROTOCOLS IN A BOILER-PLATE WAY TO SOME DATASET)?",
			"WOULD SOMEBODY WHO HAD NOT READ IT, BUT WAS OTHERWISE EDUCATED AND INFORMED, COME AWAY FROM IT BEING MORE ENLIGHTENED AND BETTER EQUIPPED TO ADJUDICATE INTELLECTUAL QUESTIONS?",
			"IS IT PARADIGM-SHIFTING OR MERELY PARADIGM-CONFORMING?",
			"DOES IT OPEN NEW LINES OF INQUIRY THAT WERE NOT PREVIOUSLY VISIBLE?",
		}),
		MustNew(Cogency, []string{
			"IS THE POINT BEING DEFENDED (IF THERE IS ONE) SHARP ENOUGH THAT IT DOES NOT NEED ARGUMENTATION?",
			"DOES THE REASONING DEFEND THE POINT BEING ARGUED, OR DOES IT DEFEND SOME OTHER, WEAKER POINT?",
			"DOES THE REASONING DEVELOP THE POINT PERSUASIVELY, OR IS THE POINT MERELY ASSERTED?",
			"IS THE REASONING SOUND, I.E. DO THE PREMISES ACTUALLY SUPPORT THE CONCLUSION?",
			"ARE THE CLAIMS MADE SUPPORTED BY EVIDENCE OR ARGUMENT RATHER THAN BY APPEAL TO AUTHORITY OR CONSENSUS?",
			"DOES THE TEXT ANTICIPATE AND DEFUSE THE STRONGEST OBJECTIONS?",
			"IF THE TEXT RELIES ON EXAMPLES, ARE THEY REPRESENTATIVE AND DO THEY ESTABLISH WHAT THEY ARE OFFERED TO ESTABLISH?",
			"DOES THE TEXT ESTABLISH ITS CONCLUSION TO A DEGREE PROPORTIONATE TO ITS CONFIDENCE?",
			"IS THE TEXT FREE OF EQUIVOCATION ON KEY TERMS?",
			"WOULD A COMPETENT, HOSTILE READER FIND THE ARGUMENT COMPELLING?",
		}),
		MustNew(Quality, []string{
			"IS THE PROSE CLEAR WITHOUT BEING SIMPLISTIC?",
			"IS EVERY SENTENCE DOING WORK, OR IS THERE PADDING?",
			"IS THE LEVEL OF DETAIL CALIBRATED TO THE POINT BEING MADE?",
			"DOES THE STRUCTURE SERVE THE CONTENT, OR IS IT IMPOSED FROM OUTSIDE?",
			"IS THE VOCABULARY PRECISE?",
			"ARE TRANSITIONS EARNED BY LOGICAL CONNECTION RATHER THAN SUPPLIED BY CONNECTIVE WORDS?",
			"IS THE TONE CONTROLLED AND APPROPRIATE TO THE SUBJECT?",
			"DOES THE PASSAGE REWARD REREADING?",
			"WOULD AN EXPERT IN THE FIELD RECOGNIZE THE WRITING AS THE WORK OF A PEER?",
		}),
	}
}
