package factory

var firstNames = []string{
	"Ada", "Alan", "Amara", "Anouk", "Beatriz", "Bjorn", "Chidi", "Clara", "Dmitri", "Elena",
	"Emeka", "Farah", "Felix", "Grace", "Hana", "Hugo", "Ingrid", "Isaac", "Jamal", "Joanna",
	"Kenji", "Lars", "Leila", "Linus", "Magnus", "Maya", "Noor", "Oskar", "Priya", "Quentin",
	"Rosa", "Ruth", "Sanjay", "Sofia", "Tariq", "Tove", "Umar", "Vera", "Wen", "Yara", "Zoe",
}

// lastNames intentionally includes punctuation; sanitizeName strips it.
var lastNames = []string{
	"Abara", "Berg", "Castillo", "D'Souza", "Eriksen", "Fontaine", "Garcia", "Hopper", "Ibarra",
	"Jensen", "Kowalski", "Lovelace", "Mbeki", "Nakamura", "O'Neill", "Petrov", "Quinn", "Rossi",
	"Santos", "Turing", "Ueda", "Van der Berg", "Wright", "Xu", "Yilmaz", "Zimmer-Lang",
}
